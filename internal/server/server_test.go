package server

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vaultbox/internal/middleware"
	"vaultbox/internal/models"
	"vaultbox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecks(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, raw := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, raw)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.send(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AuthCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	status, raw := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, raw).Code)

	status, _ = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	token := decode[authResponse](t, raw).Token

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: cookie.Value})
	meResp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	_ = meResp.Body.Close()
	assert.Equal(t, http.StatusOK, meResp.StatusCode)

	status, raw = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", decode[models.User](t, raw).Username)

	status, _ = ts.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, raw = ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthenticated, decode[models.ErrorResponse](t, raw).Code)
}

func TestRegister_ValidatesInput(t *testing.T) {
	ts := newTestServer(t)

	status, raw := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "a!",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, raw).Code)
}

func TestUploadAndServeFiles(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "alice")
	postID := ts.createPost(t, token, "First upload")

	status, raw := ts.upload(t, token, postID,
		part{"photo.jpg", "image/jpeg", testutil.TinyJPEG(t, 2000, 1000)},
		part{"clip.mp4", "video/mp4", []byte("stub video bytes")},
	)
	require.Equal(t, http.StatusCreated, status, string(raw))
	files := decode[[]models.MediaFile](t, raw)
	require.Len(t, files, 2)
	assert.Equal(t, "image/jpeg", files[0].ContentType)
	assert.Equal(t, "video/mp4", files[1].ContentType)
	assert.Equal(t, 1, ts.sampler.Calls)

	status, raw = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/files", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	listed := decode[[]models.MediaFile](t, raw)
	require.Len(t, listed, 2)
	assert.Equal(t, files[0].Filename, listed[0].Filename)

	for _, f := range listed {
		resp := ts.send(t, http.MethodGet, f.ThumbnailURL, "", nil)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

		cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.LessOrEqual(t, cfg.Width, ts.cfg.ThumbnailMaxDim)
		assert.LessOrEqual(t, cfg.Height, ts.cfg.ThumbnailMaxDim)
	}

	resp := ts.send(t, http.MethodGet, listed[1].URL, "", nil)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "stub video bytes", string(body))

	// The post list carries the first file's thumbnail.
	status, raw = ts.do(t, http.MethodGet, "/api/posts?tag=landscape", "", nil)
	require.Equal(t, http.StatusOK, status)
	posts := decode[[]struct {
		Thumbnail string `json:"thumbnail"`
		TimeSince string `json:"time_since"`
	}](t, raw)
	require.Len(t, posts, 1)
	assert.Equal(t, listed[0].ThumbnailURL, posts[0].Thumbnail)
	assert.Equal(t, "now", posts[0].TimeSince)

	status, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d/files/%d", postID, listed[1].ID), token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(t, http.MethodGet, listed[1].URL, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadFiles_Rejections(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	postID := ts.createPost(t, alice, "Rejections")

	tests := []struct {
		name   string
		token  string
		parts  []part
		status int
		code   string
	}{
		{
			name:   "unsupported type",
			token:  alice,
			parts:  []part{{"doc.pdf", "application/pdf", []byte("%PDF")}, {"a.jpg", "image/jpeg", testutil.TinyJPEG(t, 10, 10)}},
			status: http.StatusUnsupportedMediaType,
			code:   models.CodeUnsupportedMediaType,
		},
		{
			name:   "oversized file",
			token:  alice,
			parts:  []part{{"big.png", "image/png", make([]byte, (1<<20)+1)}},
			status: http.StatusRequestEntityTooLarge,
			code:   models.CodePayloadTooLarge,
		},
		{
			name:   "not the owner",
			token:  bob,
			parts:  []part{{"a.jpg", "image/jpeg", testutil.TinyJPEG(t, 10, 10)}},
			status: http.StatusNotFound,
			code:   models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := ts.upload(t, tt.token, postID, tt.parts...)
			require.Equal(t, tt.status, status, string(raw))
			body := decode[uploadFailureResponse](t, raw)
			assert.Equal(t, tt.code, body.Code)
			assert.Empty(t, body.Files)
		})
	}

	status, raw := ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/files", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.MediaFile](t, raw))

	status, _ = ts.upload(t, "", postID, part{"a.jpg", "image/jpeg", testutil.TinyJPEG(t, 10, 10)})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUploadFiles_PartialBatchReturnsCommitted(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "alice")
	postID := ts.createPost(t, token, "Partial")

	status, raw := ts.upload(t, token, postID,
		part{"good.png", "image/png", testutil.TinyPNG(t, 40, 20)},
		part{"bad.png", "image/png", []byte("not a png")},
	)
	require.Equal(t, http.StatusBadRequest, status, string(raw))
	body := decode[uploadFailureResponse](t, raw)
	assert.Equal(t, models.CodeValidation, body.Code)
	require.Len(t, body.Files, 1)
	assert.True(t, strings.HasSuffix(body.Files[0].Filename, ".png"))
}

func TestUploadFiles_RejectedMidBatchKeepsEarlierFiles(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "alice")
	postID := ts.createPost(t, token, "Mixed")

	status, raw := ts.upload(t, token, postID,
		part{"a.jpg", "image/jpeg", testutil.TinyJPEG(t, 20, 20)},
		part{"b.txt", "text/plain", []byte("hello")},
		part{"c.jpg", "image/jpeg", testutil.TinyJPEG(t, 20, 20)},
	)
	require.Equal(t, http.StatusUnsupportedMediaType, status, string(raw))
	body := decode[uploadFailureResponse](t, raw)
	assert.Equal(t, models.CodeUnsupportedMediaType, body.Code)
	require.Len(t, body.Files, 1)

	status, raw = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d/files", postID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.MediaFile](t, raw), 1)
}

func TestReactions(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	postID := ts.createPost(t, alice, "React to me")
	path := fmt.Sprintf("/api/posts/%d/reactions", postID)

	status, raw := ts.do(t, http.MethodPost, path, bob, map[string]string{"type": "like"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, models.ReactionSummary{Type: models.ReactionLike, Likes: 1}, decode[models.ReactionSummary](t, raw))

	status, raw = ts.do(t, http.MethodPost, path, bob, map[string]string{"type": "dislike"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ReactionSummary{Type: models.ReactionDislike, Dislikes: 1}, decode[models.ReactionSummary](t, raw))

	status, raw = ts.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", postID), bob, nil)
	require.Equal(t, http.StatusOK, status)
	post := decode[models.Post](t, raw)
	assert.Equal(t, int64(0), post.LikeCount)
	assert.Equal(t, int64(1), post.DislikeCount)
	assert.Equal(t, models.ReactionDislike, post.UserReaction)

	status, _ = ts.do(t, http.MethodPost, path, bob, map[string]string{"type": "love"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/posts/999/reactions", bob, map[string]string{"type": "like"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComments(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	postID := ts.createPost(t, alice, "Discuss")
	base := fmt.Sprintf("/api/posts/%d/comments", postID)

	status, raw := ts.do(t, http.MethodPost, base, bob, map[string]string{"content": "nice shot"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	comment := decode[models.Comment](t, raw)

	status, _ = ts.do(t, http.MethodPost, fmt.Sprintf("%s/%d/reactions", base, comment.ID), alice, map[string]string{"type": "like"})
	assert.Equal(t, http.StatusOK, status)

	status, raw = ts.do(t, http.MethodGet, base, alice, nil)
	require.Equal(t, http.StatusOK, status)
	listed := decode[[]models.Comment](t, raw)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].LikeCount)
	assert.Equal(t, models.ReactionLike, listed[0].UserReaction)

	status, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, comment.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, comment.ID), bob, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestVaultVisibility(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")
	postID := ts.createPost(t, alice, "Keep me")

	status, raw := ts.do(t, http.MethodPost, "/api/vaults", alice, map[string]string{"title": "Favorites"})
	require.Equal(t, http.StatusCreated, status, string(raw))
	vault := decode[models.Vault](t, raw)
	assert.Equal(t, models.PrivacyPrivate, vault.Privacy)
	vaultPath := fmt.Sprintf("/api/vaults/%d", vault.ID)

	status, _ = ts.do(t, http.MethodPost, "/api/vaults", alice, map[string]string{"title": "Favorites"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = ts.do(t, http.MethodPost, fmt.Sprintf("%s/posts/%d", vaultPath, postID), alice, nil)
	require.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(t, http.MethodPost, fmt.Sprintf("%s/posts/%d", vaultPath, postID), alice, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, raw = ts.do(t, http.MethodGet, vaultPath, alice, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[struct {
		PostCount int64  `json:"post_count"`
		TimeSince string `json:"time_since"`
	}](t, raw)
	assert.Equal(t, int64(1), got.PostCount)
	assert.Equal(t, "now", got.TimeSince)

	for _, token := range []string{bob, ""} {
		status, _ = ts.do(t, http.MethodGet, vaultPath, token, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = ts.do(t, http.MethodGet, vaultPath+"/posts", token, nil)
		assert.Equal(t, http.StatusNotFound, status)
	}

	status, raw = ts.do(t, http.MethodGet, "/api/users/alice/vaults", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Vault](t, raw))

	status, _ = ts.do(t, http.MethodPut, vaultPath, alice, map[string]string{"privacy": "public"})
	require.Equal(t, http.StatusOK, status)
	status, raw = ts.do(t, http.MethodGet, vaultPath+"/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Post](t, raw), 1)

	status, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("%s/posts/%d", vaultPath, 999), alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserProfile(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	ts.createPost(t, alice, "One")
	ts.createPost(t, alice, "Two")

	status, raw := ts.do(t, http.MethodGet, "/api/users/alice", "", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[struct {
		Username  string `json:"username"`
		PostCount int64  `json:"post_count"`
		TimeSince string `json:"time_since"`
	}](t, raw)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, int64(2), profile.PostCount)
	assert.Equal(t, "now", profile.TimeSince)

	status, _ = ts.do(t, http.MethodGet, "/api/users/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReportsAndTags(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	postID := ts.createPost(t, alice, "Tagged")

	status, raw := ts.do(t, http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, status)
	tags := decode[[]models.Tag](t, raw)
	require.Len(t, tags, 1)
	assert.Equal(t, "landscape", tags[0].Name)
	assert.Equal(t, int64(1), tags[0].PostCount)

	status, raw = ts.do(t, http.MethodPost, "/api/reports", "", map[string]interface{}{
		"target_type": "post",
		"target_id":   postID,
		"detail":      "spam",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	assert.Nil(t, decode[models.Report](t, raw).UserID)

	status, _ = ts.do(t, http.MethodPost, "/api/reports", alice, map[string]interface{}{
		"target_type": "comment",
		"target_id":   42,
		"detail":      "gone",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t)

	status, raw := ts.do(t, http.MethodGet, "/api/posts/999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, raw).Code)

	status, raw = ts.do(t, http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", decode[models.ErrorResponse](t, raw).Error)

	status, _ = ts.do(t, http.MethodGet, "/api/posts?sort=random", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, http.MethodPost, "/api/posts", "", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "post ID", humanizeParam("postID"))
	assert.Equal(t, "comment ID", humanizeParam("commentID"))
	assert.Equal(t, "filename", humanizeParam("filename"))
}
