package service

import (
	"context"
	"strings"
	"testing"

	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")

	post, err := env.postSvc.Create(ctx, owner, PostInput{
		Title: "sunset",
		Tags: []TagInput{
			{Name: "Landscape"},
			{Name: "landscape", Type: "general"},
			{Name: "monet", Type: "artist"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "sunset", post.Title)
	assert.Equal(t, owner.ID, post.User.ID)
	assert.Len(t, post.Tags, 2)
	assert.Equal(t, models.ReactionNone, post.UserReaction)

	t.Run("validation", func(t *testing.T) {
		_, err := env.postSvc.Create(ctx, owner, PostInput{Title: ""})
		requireCode(t, err, models.CodeValidation)
		_, err = env.postSvc.Create(ctx, owner, PostInput{Title: strings.Repeat("x", 201)})
		requireCode(t, err, models.CodeValidation)
		_, err = env.postSvc.Create(ctx, owner, PostInput{Title: "ok", Tags: []TagInput{{Name: "x", Type: "genre"}}})
		requireCode(t, err, models.CodeValidation)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := env.postSvc.Create(ctx, models.Identity{}, PostInput{Title: "ok"})
		requireCode(t, err, models.CodeUnauthenticated)
	})
}

func TestPostService_List_SortsAndFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")
	fans := []models.Identity{env.user(t, "bob"), env.user(t, "carol"), env.user(t, "dave")}

	quiet := env.post(t, owner, "quiet")
	loved := env.post(t, owner, "loved")
	divisive, err := env.postSvc.Create(ctx, owner, PostInput{Title: "divisive", Tags: []TagInput{{Name: "hot"}}})
	require.NoError(t, err)

	_, err = env.reactSvc.SetPostReaction(ctx, fans[0], loved.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = env.reactSvc.SetPostReaction(ctx, fans[1], loved.ID, models.ReactionLike)
	require.NoError(t, err)
	for _, f := range fans {
		_, err = env.reactSvc.SetPostReaction(ctx, f, divisive.ID, models.ReactionDislike)
		require.NoError(t, err)
	}

	titles := func(posts []*models.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.Title
		}
		return out
	}

	top, err := env.postSvc.List(ctx, fans[0], ListPostsInput{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"divisive", "loved", "quiet"}, titles(top))
	assert.Equal(t, models.ReactionDislike, top[0].UserReaction)
	assert.Equal(t, models.ReactionLike, top[1].UserReaction)
	assert.Equal(t, models.ReactionNone, top[2].UserReaction)

	likes, err := env.postSvc.List(ctx, models.Identity{}, ListPostsInput{Limit: 10, Sort: repository.SortLikes})
	require.NoError(t, err)
	assert.Equal(t, "loved", likes[0].Title)

	score, err := env.postSvc.List(ctx, models.Identity{}, ListPostsInput{Limit: 10, Sort: repository.SortScore})
	require.NoError(t, err)
	assert.Equal(t, []string{"loved", "quiet", "divisive"}, titles(score))

	newest, err := env.postSvc.List(ctx, models.Identity{}, ListPostsInput{Limit: 10, Sort: repository.SortNew})
	require.NoError(t, err)
	assert.Len(t, newest, 3)

	tagged, err := env.postSvc.List(ctx, models.Identity{}, ListPostsInput{Limit: 10, Tag: "hot"})
	require.NoError(t, err)
	assert.Equal(t, []string{"divisive"}, titles(tagged))

	_, err = env.postSvc.List(ctx, models.Identity{}, ListPostsInput{Sort: "random"})
	requireCode(t, err, models.CodeValidation)

	_ = quiet
}

func TestPostService_List_Thumbnail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")
	post := env.post(t, owner, "gallery")

	stored, err := env.media.AttachFiles(ctx, owner, post.ID, []Upload{
		upload("a.png", "image/png", testutil.TinyPNG(t, 16, 16)),
	})
	require.NoError(t, err)

	posts, err := env.postSvc.List(ctx, owner, ListPostsInput{Limit: 10})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, stored[0].ThumbnailURL, posts[0].Thumbnail)
}

func TestPostService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")
	other := env.user(t, "bob")
	post, err := env.postSvc.Create(ctx, owner, PostInput{Title: "draft", Tags: []TagInput{{Name: "old"}}})
	require.NoError(t, err)

	_, err = env.postSvc.Update(ctx, other, post.ID, PostInput{Title: "hijacked"})
	requireCode(t, err, models.CodeNotFound)

	updated, err := env.postSvc.Update(ctx, owner, post.ID, PostInput{
		Title: "final",
		Tags:  []TagInput{{Name: "new", Type: "character"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "new", updated.Tags[0].Name)
}

func TestPostService_Delete_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "alice")
	other := env.user(t, "bob")
	post := env.post(t, owner, "doomed")

	_, err := env.media.AttachFiles(ctx, owner, post.ID, []Upload{
		upload("a.png", "image/png", testutil.TinyPNG(t, 16, 16)),
	})
	require.NoError(t, err)
	comment, err := env.comment.Create(ctx, other, post.ID, "nice")
	require.NoError(t, err)
	_, err = env.reactSvc.SetCommentReaction(ctx, owner, post.ID, comment.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = env.reactSvc.SetPostReaction(ctx, other, post.ID, models.ReactionLike)
	require.NoError(t, err)
	vault, err := env.vaultSvc.Create(ctx, other, VaultInput{Title: "saved"})
	require.NoError(t, err)
	require.NoError(t, env.vaultSvc.AddPost(ctx, other, vault.ID, post.ID))

	requireCode(t, env.postSvc.Delete(ctx, other, post.ID), models.CodeNotFound)
	require.NoError(t, env.postSvc.Delete(ctx, owner, post.ID))

	_, err = env.postSvc.Get(ctx, owner, post.ID)
	requireCode(t, err, models.CodeNotFound)
	assert.Empty(t, filesOnDisk(t, env.storage.Root()))

	for _, model := range []interface{}{&models.MediaFile{}, &models.Comment{}, &models.CommentReaction{}, &models.PostReaction{}, &models.VaultPost{}} {
		var n int64
		require.NoError(t, env.db.Model(model).Count(&n).Error)
		assert.Zerof(t, n, "%T rows left behind", model)
	}
}
