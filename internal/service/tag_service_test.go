package service

import (
	"context"
	"testing"

	"vaultbox/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_ListIsCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := newTestEnv(t)
	env.tags = NewTagService(env.tagRepo, cache.New(rdb))
	env.postSvc = NewPostService(env.posts, env.reactions, env.tags, env.media)
	ctx := context.Background()
	alice := env.user(t, "alice")

	empty, err := env.tags.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.True(t, mr.Exists(cache.TagsKey))

	_, err = env.postSvc.Create(ctx, alice, PostInput{Title: "a", Tags: []TagInput{{Name: "Blue Sky"}, {Name: "hokusai", Type: "artist"}}})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.TagsKey))

	tags, err := env.tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	names := map[string]int64{}
	for _, tag := range tags {
		names[tag.Name] = tag.PostCount
	}
	assert.Equal(t, map[string]int64{"blue_sky": 1, "hokusai": 1}, names)
}

func TestTagService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tags, err := env.tags.Resolve(ctx, []TagInput{{Name: "x"}, {Name: "X", Type: "general"}, {Name: "x", Type: "parody"}})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	again, err := env.tags.Resolve(ctx, []TagInput{{Name: "x"}})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, tags[0].ID, again[0].ID)

	many := make([]TagInput, 65)
	for i := range many {
		many[i] = TagInput{Name: "t"}
	}
	_, err = env.tags.Resolve(ctx, many)
	assert.Error(t, err)

	_, err = env.tags.Resolve(ctx, []TagInput{{Name: "   "}})
	assert.Error(t, err)
}
