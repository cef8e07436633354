package repository

import (
	"context"
	"fmt"
	"testing"

	"vaultbox/internal/models"
	"vaultbox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    UserRepository
	posts    PostRepository
	comments CommentRepository
	reacts   ReactionRepository
	media    MediaRepository
	vaults   VaultRepository
	tags     TagRepository
	reports  ReportRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return &fixture{
		db:       db,
		users:    NewUserRepository(db),
		posts:    NewPostRepository(db),
		comments: NewCommentRepository(db),
		reacts:   NewReactionRepository(db),
		media:    NewMediaRepository(db),
		vaults:   NewVaultRepository(db),
		tags:     NewTagRepository(db),
		reports:  NewReportRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "hash"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, owner *models.User, title string, tags ...models.Tag) *models.Post {
	t.Helper()
	ctx := context.Background()
	stored, err := f.tags.Upsert(ctx, tags)
	require.NoError(t, err)
	p := &models.Post{Title: title, UserID: owner.ID, Tags: stored}
	require.NoError(t, f.posts.Create(ctx, p))
	return p
}

func (f *fixture) react(t *testing.T, userID, postID uint, rt models.ReactionType) {
	t.Helper()
	require.NoError(t, f.reacts.Set(context.Background(), ReactionTargetPost, userID, postID, rt))
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice")

	err := f.users.Create(ctx, &models.User{Username: "alice", Password: "x"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	got, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = f.users.GetByID(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	_, err = f.users.GetByUsername(ctx, "nobody")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	p := f.post(t, alice, "first")
	f.react(t, alice.ID, p.ID, models.ReactionLike)
	require.NoError(t, f.comments.Create(ctx, &models.Comment{Content: "hi", UserID: alice.ID, PostID: p.ID}))
	require.NoError(t, f.vaults.Create(ctx, &models.Vault{Title: "v", UserID: alice.ID, Privacy: models.PrivacyPrivate}))

	stats, err := f.users.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{PostCount: 1, VaultCount: 1, CommentCount: 1, LikedPosts: 1}, stats)
}

func TestReactionRepository_SetIsUpsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, alice, "post")

	for _, rt := range []models.ReactionType{models.ReactionLike, models.ReactionLike, models.ReactionDislike, models.ReactionLike} {
		f.react(t, alice.ID, p.ID, rt)
	}
	f.react(t, bob.ID, p.ID, models.ReactionDislike)

	var rows int64
	require.NoError(t, f.db.Model(&models.PostReaction{}).Where("user_id = ? AND post_id = ?", alice.ID, p.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	counts, err := f.reacts.Counts(ctx, ReactionTargetPost, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCounts{Likes: 1, Dislikes: 1}, counts)

	f.react(t, bob.ID, p.ID, models.ReactionNone)
	counts, err = f.reacts.Counts(ctx, ReactionTargetPost, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCounts{Likes: 1}, counts)

	mine, err := f.reacts.UserReactions(ctx, ReactionTargetPost, bob.ID, []uint{p.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[uint]models.ReactionType{p.ID: models.ReactionNone}, mine)

	empty, err := f.reacts.UserReactions(ctx, ReactionTargetPost, 0, []uint{p.ID})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReactionRepository_Comments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.post(t, alice, "post")
	c := &models.Comment{Content: "nice", UserID: alice.ID, PostID: p.ID}
	require.NoError(t, f.comments.Create(ctx, c))

	require.NoError(t, f.reacts.Set(ctx, ReactionTargetComment, alice.ID, c.ID, models.ReactionDislike))
	require.NoError(t, f.reacts.Set(ctx, ReactionTargetComment, alice.ID, c.ID, models.ReactionDislike))

	got, err := f.comments.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DislikeCount)
	assert.Equal(t, int64(1), got.ReactionCount)
	assert.Equal(t, "alice", got.User.Username)

	require.NoError(t, f.comments.Delete(ctx, c.ID))
	var left int64
	require.NoError(t, f.db.Model(&models.CommentReaction{}).Count(&left).Error)
	assert.Zero(t, left)

	assert.True(t, models.HasCode(f.comments.Delete(ctx, c.ID), models.CodeNotFound))
}

func TestPostRepository_ListSortsAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	voters := make([]*models.User, 3)
	for i := range voters {
		voters[i] = f.user(t, fmt.Sprintf("voter%d", i))
	}

	cat := models.Tag{Name: "cat", Type: models.TagTypeGeneral}
	quiet := f.post(t, owner, "quiet", cat)
	loved := f.post(t, owner, "loved")
	hated := f.post(t, owner, "hated", cat)

	for _, v := range voters {
		f.react(t, v.ID, hated.ID, models.ReactionDislike)
	}
	f.react(t, voters[0].ID, loved.ID, models.ReactionLike)
	f.react(t, voters[1].ID, loved.ID, models.ReactionLike)
	f.react(t, voters[2].ID, quiet.ID, models.ReactionNone)

	titles := func(posts []*models.Post) []string {
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.Title)
		}
		return out
	}

	top, err := f.posts.List(ctx, PostQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"hated", "loved", "quiet"}, titles(top))
	assert.Equal(t, int64(3), top[0].DislikeCount)
	assert.Equal(t, int64(2), top[1].LikeCount)

	score, err := f.posts.List(ctx, PostQuery{Limit: 10, Sort: SortScore})
	require.NoError(t, err)
	assert.Equal(t, []string{"loved", "quiet", "hated"}, titles(score))

	likes, err := f.posts.List(ctx, PostQuery{Limit: 1, Sort: SortLikes})
	require.NoError(t, err)
	assert.Equal(t, []string{"loved"}, titles(likes))

	tagged, err := f.posts.List(ctx, PostQuery{Limit: 10, Tag: "cat"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"quiet", "hated"}, titles(tagged))

	paged, err := f.posts.List(ctx, PostQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"loved"}, titles(paged))
}

func TestPostRepository_TopCountsEveryReactionRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	a := f.user(t, "a")
	b := f.user(t, "b")

	withdrawn := f.post(t, owner, "withdrawn")
	liked := f.post(t, owner, "liked")

	f.react(t, a.ID, withdrawn.ID, models.ReactionNone)
	f.react(t, b.ID, withdrawn.ID, models.ReactionNone)
	f.react(t, a.ID, liked.ID, models.ReactionLike)

	top, err := f.posts.List(ctx, PostQuery{Limit: 10, Sort: SortTop})
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "withdrawn", top[0].Title)
	assert.Zero(t, top[0].LikeCount)
	assert.Zero(t, top[0].DislikeCount)
	assert.Equal(t, "liked", top[1].Title)
}

func TestPostRepository_GetByIDDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.post(t, owner, "with files", models.Tag{Name: "sky", Type: models.TagTypeGeneral})

	require.NoError(t, f.media.Create(ctx, &models.MediaFile{PostID: p.ID, Filename: "a.png", FilePath: "owner/posts/1/a.png", ThumbnailPath: "owner/posts/1/thumb_a.png", ContentType: "image/png", Size: 1}))
	require.NoError(t, f.media.Create(ctx, &models.MediaFile{PostID: p.ID, Filename: "b.png", FilePath: "owner/posts/1/b.png", ThumbnailPath: "owner/posts/1/thumb_b.png", ContentType: "image/png", Size: 1}))
	require.NoError(t, f.comments.Create(ctx, &models.Comment{Content: "c", UserID: owner.ID, PostID: p.ID}))

	got, err := f.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.User.Username)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "sky", got.Tags[0].Name)
	assert.Equal(t, int64(1), got.CommentCount)
	assert.Equal(t, models.FileURL(p.ID, "a.png", true), got.Thumbnail)

	_, err = f.posts.GetByID(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_UpdateReplacesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.post(t, owner, "old", models.Tag{Name: "a", Type: models.TagTypeGeneral})

	newTags, err := f.tags.Upsert(ctx, []models.Tag{{Name: "b", Type: models.TagTypeArtist}})
	require.NoError(t, err)
	p.Title = "new"
	require.NoError(t, f.posts.Update(ctx, p, newTags))

	got, err := f.posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "b", got.Tags[0].Name)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.post(t, owner, "doomed", models.Tag{Name: "x", Type: models.TagTypeGeneral})
	keep := f.post(t, owner, "kept")

	c := &models.Comment{Content: "c", UserID: owner.ID, PostID: p.ID}
	require.NoError(t, f.comments.Create(ctx, c))
	require.NoError(t, f.reacts.Set(ctx, ReactionTargetComment, owner.ID, c.ID, models.ReactionLike))
	f.react(t, owner.ID, p.ID, models.ReactionLike)
	f.react(t, owner.ID, keep.ID, models.ReactionLike)
	require.NoError(t, f.media.Create(ctx, &models.MediaFile{PostID: p.ID, Filename: "f.png", FilePath: "p", ThumbnailPath: "t", ContentType: "image/png"}))
	v := &models.Vault{Title: "v", UserID: owner.ID, Privacy: models.PrivacyPublic}
	require.NoError(t, f.vaults.Create(ctx, v))
	require.NoError(t, f.vaults.AddPost(ctx, v.ID, p.ID))

	require.NoError(t, f.posts.Delete(ctx, p.ID))

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(1), count(&models.Post{}))
	assert.Zero(t, count(&models.Comment{}))
	assert.Zero(t, count(&models.CommentReaction{}))
	assert.Equal(t, int64(1), count(&models.PostReaction{}))
	assert.Zero(t, count(&models.MediaFile{}))
	assert.Zero(t, count(&models.VaultPost{}))
	var joins int64
	require.NoError(t, f.db.Table("post_tags").Count(&joins).Error)
	assert.Zero(t, joins)

	assert.True(t, models.HasCode(f.posts.Delete(ctx, p.ID), models.CodeNotFound))
}

func TestVaultRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	p := f.post(t, alice, "p")

	private := &models.Vault{Title: "mine", UserID: alice.ID, Privacy: models.PrivacyPrivate}
	require.NoError(t, f.vaults.Create(ctx, private))
	public := &models.Vault{Title: "shared", UserID: alice.ID, Privacy: models.PrivacyPublic}
	require.NoError(t, f.vaults.Create(ctx, public))

	err := f.vaults.Create(ctx, &models.Vault{Title: "mine", UserID: alice.ID, Privacy: models.PrivacyPublic})
	assert.True(t, models.HasCode(err, models.CodeConflict))
	require.NoError(t, f.vaults.Create(ctx, &models.Vault{Title: "mine", UserID: bob.ID, Privacy: models.PrivacyPublic}))

	public.Title = "mine"
	assert.True(t, models.HasCode(f.vaults.Update(ctx, public), models.CodeConflict))

	require.NoError(t, f.vaults.AddPost(ctx, private.ID, p.ID))
	assert.True(t, models.HasCode(f.vaults.AddPost(ctx, private.ID, p.ID), models.CodeConflict))

	got, err := f.vaults.GetByID(ctx, private.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PostCount)
	assert.Equal(t, "alice", got.User.Username)

	inVault, err := f.posts.List(ctx, PostQuery{Limit: 10, VaultID: private.ID})
	require.NoError(t, err)
	require.Len(t, inVault, 1)
	assert.Equal(t, p.ID, inVault[0].ID)

	all, err := f.vaults.ListByUser(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	visible, err := f.vaults.ListByUser(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	removed, err := f.vaults.RemovePost(ctx, private.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.vaults.RemovePost(ctx, private.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, f.vaults.Delete(ctx, private.ID))
	_, err = f.vaults.GetByID(ctx, private.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestTagRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	a := models.Tag{Name: "a", Type: models.TagTypeGeneral}
	first, err := f.tags.Upsert(ctx, []models.Tag{a})
	require.NoError(t, err)
	again, err := f.tags.Upsert(ctx, []models.Tag{a, {Name: "a", Type: models.TagTypeArtist}})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.NotEqual(t, again[0].ID, again[1].ID)

	f.post(t, owner, "p1", a)
	f.post(t, owner, "p2", a)

	tags, err := f.tags.ListWithCounts(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, models.TagTypeGeneral, tags[0].Type)
	assert.Equal(t, int64(2), tags[0].PostCount)
	assert.Zero(t, tags[1].PostCount)
}

func TestMediaRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	p := f.post(t, owner, "p")

	file := &models.MediaFile{PostID: p.ID, Filename: "abc.jpg", FilePath: "owner/posts/1/abc.jpg", ThumbnailPath: "owner/posts/1/thumb_abc.jpg", ContentType: "image/jpeg", Size: 10}
	require.NoError(t, f.media.Create(ctx, file))
	dup := *file
	dup.ID = 0
	assert.True(t, models.HasCode(f.media.Create(ctx, &dup), models.CodeConflict))

	got, err := f.media.GetByFilename(ctx, p.ID, "abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	_, err = f.media.GetByFilename(ctx, p.ID+1, "abc.jpg")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	paths, err := f.media.ReferencedPaths(ctx)
	require.NoError(t, err)
	assert.Contains(t, paths, "owner/posts/1/abc.jpg")
	assert.Contains(t, paths, "owner/posts/1/thumb_abc.jpg")

	require.NoError(t, f.media.Delete(ctx, file.ID))
	assert.True(t, models.HasCode(f.media.Delete(ctx, file.ID), models.CodeNotFound))
}

func TestReportRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")

	ok, err := f.reports.TargetExists(ctx, models.ReportTargetUser, owner.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.reports.TargetExists(ctx, models.ReportTargetPost, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.reports.Create(ctx, &models.Report{TargetType: models.ReportTargetUser, TargetID: owner.ID, Detail: "spam"}))
}
