package service

import (
	"context"
	"testing"

	"vaultbox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultService_CreateAndVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	private, err := env.vaultSvc.Create(ctx, alice, VaultInput{Title: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyPrivate, private.Privacy)

	public, err := env.vaultSvc.Create(ctx, alice, VaultInput{Title: "shared", Privacy: "public"})
	require.NoError(t, err)

	_, err = env.vaultSvc.Create(ctx, alice, VaultInput{Title: "secret"})
	requireCode(t, err, models.CodeConflict)
	_, err = env.vaultSvc.Create(ctx, alice, VaultInput{Title: "x", Privacy: "friends"})
	requireCode(t, err, models.CodeValidation)
	_, err = env.vaultSvc.Create(ctx, alice, VaultInput{Title: ""})
	requireCode(t, err, models.CodeValidation)

	_, err = env.vaultSvc.Create(ctx, bob, VaultInput{Title: "secret"})
	require.NoError(t, err)

	_, err = env.vaultSvc.Get(ctx, bob, private.ID)
	requireCode(t, err, models.CodeNotFound)
	_, err = env.vaultSvc.Get(ctx, models.Identity{}, private.ID)
	requireCode(t, err, models.CodeNotFound)
	got, err := env.vaultSvc.Get(ctx, alice, private.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)
	_, err = env.vaultSvc.Get(ctx, models.Identity{}, public.ID)
	require.NoError(t, err)

	own, err := env.vaultSvc.ListForUser(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Len(t, own, 2)
	visible, err := env.vaultSvc.ListForUser(ctx, bob, "alice")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, public.ID, visible[0].ID)
	_, err = env.vaultSvc.ListForUser(ctx, bob, "nobody")
	requireCode(t, err, models.CodeNotFound)
}

func TestVaultService_Membership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.post(t, bob, "saved later")

	vault, err := env.vaultSvc.Create(ctx, alice, VaultInput{Title: "favs", Privacy: "public"})
	require.NoError(t, err)

	require.NoError(t, env.vaultSvc.AddPost(ctx, alice, vault.ID, post.ID))
	requireCode(t, env.vaultSvc.AddPost(ctx, alice, vault.ID, post.ID), models.CodeConflict)
	requireCode(t, env.vaultSvc.AddPost(ctx, alice, vault.ID, post.ID+10), models.CodeNotFound)
	requireCode(t, env.vaultSvc.AddPost(ctx, bob, vault.ID, post.ID), models.CodeNotFound)

	got, err := env.vaultSvc.Get(ctx, bob, vault.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PostCount)

	posts, err := env.vaultSvc.ListPosts(ctx, bob, vault.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
	assert.Equal(t, models.ReactionNone, posts[0].UserReaction)

	require.NoError(t, env.vaultSvc.RemovePost(ctx, alice, vault.ID, post.ID))
	requireCode(t, env.vaultSvc.RemovePost(ctx, alice, vault.ID, post.ID), models.CodeValidation)
}

func TestVaultService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	first, err := env.vaultSvc.Create(ctx, alice, VaultInput{Title: "one"})
	require.NoError(t, err)
	_, err = env.vaultSvc.Create(ctx, alice, VaultInput{Title: "two"})
	require.NoError(t, err)

	_, err = env.vaultSvc.Update(ctx, bob, first.ID, VaultInput{Title: "mine now"})
	requireCode(t, err, models.CodeNotFound)
	_, err = env.vaultSvc.Update(ctx, alice, first.ID, VaultInput{Title: "two"})
	requireCode(t, err, models.CodeConflict)

	updated, err := env.vaultSvc.Update(ctx, alice, first.ID, VaultInput{Privacy: "public"})
	require.NoError(t, err)
	assert.Equal(t, "one", updated.Title)
	assert.Equal(t, models.PrivacyPublic, updated.Privacy)

	requireCode(t, env.vaultSvc.Delete(ctx, bob, first.ID), models.CodeNotFound)
	require.NoError(t, env.vaultSvc.Delete(ctx, alice, first.ID))
	_, err = env.vaultSvc.Get(ctx, alice, first.ID)
	requireCode(t, err, models.CodeNotFound)
}
