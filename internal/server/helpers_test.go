package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"vaultbox/internal/config"
	"vaultbox/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app     *fiber.App
	cfg     *config.Config
	sampler *testutil.FrameSamplerStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:               "test",
		Port:              "0",
		JWTSecret:         "test-secret-that-is-long-enough-123456",
		AllowedOrigins:    "*",
		UploadFolder:      t.TempDir(),
		MaxFileSize:       1 << 20,
		AllowedImageTypes: config.DefaultImageTypes,
		AllowedVideoTypes: config.DefaultVideoTypes,
		ThumbnailMaxDim:   1024,
		VideoFrameOffset:  time.Second,
		RateLimitRequests: 30,
		RateLimitWindow:   time.Minute,
	}
	sampler := &testutil.FrameSamplerStub{Frame: image.NewRGBA(image.Rect(0, 0, 1920, 1080))}

	srv, err := NewServerWithDeps(cfg, testutil.NewTestDB(t), nil, WithFrameSampler(sampler))
	require.NoError(t, err)

	return &testServer{app: srv.NewApp(), cfg: cfg, sampler: sampler}
}

// do sends a request and returns the status and body. body is JSON-encoded
// unless it is already an io.Reader.
func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	resp := ts.send(t, method, path, token, body)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (ts *testServer) send(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	status, raw := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out authResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Token
}

func (ts *testServer) createPost(t *testing.T, token, title string) uint {
	t.Helper()
	status, raw := ts.do(t, http.MethodPost, "/api/posts", token, map[string]interface{}{
		"title": title,
		"tags":  []map[string]string{{"name": "landscape", "type": "general"}},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var out struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.ID
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func (ts *testServer) upload(t *testing.T, token string, postID uint, parts ...part) (int, []byte) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, p.name))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/posts/%d/files", postID), buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
