package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"vaultbox/internal/cache"
	"vaultbox/internal/config"
	"vaultbox/internal/media"
	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	UserID  uint
	Type    string
	Payload interface{}
}

type publisherStub struct {
	publishFn func(ctx context.Context, userID uint, eventType string, payload interface{})

	mu     sync.Mutex
	events []publishedEvent
}

func (p *publisherStub) PublishUser(ctx context.Context, userID uint, eventType string, payload interface{}) {
	p.mu.Lock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
	p.mu.Unlock()
	if p.publishFn != nil {
		p.publishFn(ctx, userID, eventType, payload)
	}
}

func (p *publisherStub) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	sampler   *testutil.FrameSamplerStub
	events    *publisherStub
	users     repository.UserRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	files     repository.MediaRepository
	vaults    repository.VaultRepository
	tagRepo   repository.TagRepository
	reports   repository.ReportRepository

	storage   *media.Storage
	media     *MediaService
	tags      *TagService
	postSvc   *PostService
	reactSvc  *ReactionService
	comment   *CommentService
	vaultSvc  *VaultService
	userSvc   *UserService
	reportSvc *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		UploadFolder:      t.TempDir(),
		MaxFileSize:       1 << 20,
		AllowedImageTypes: config.DefaultImageTypes,
		AllowedVideoTypes: config.DefaultVideoTypes,
		ThumbnailMaxDim:   1024,
		VideoFrameOffset:  time.Second,
	}
	storage, err := media.NewStorage(cfg)
	require.NoError(t, err)

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		sampler:   &testutil.FrameSamplerStub{Frame: image.NewRGBA(image.Rect(0, 0, 1920, 1080))},
		events:    &publisherStub{},
		users:     repository.NewUserRepository(db),
		posts:     repository.NewPostRepository(db),
		comments:  repository.NewCommentRepository(db),
		reactions: repository.NewReactionRepository(db),
		files:     repository.NewMediaRepository(db),
		vaults:    repository.NewVaultRepository(db),
		tagRepo:   repository.NewTagRepository(db),
		reports:   repository.NewReportRepository(db),
		storage:   storage,
	}

	noCache := cache.New(nil)
	env.media = NewMediaService(env.posts, env.files, storage, media.NewValidator(cfg),
		media.NewThumbnailer(cfg, env.sampler), env.events)
	env.tags = NewTagService(env.tagRepo, noCache)
	env.postSvc = NewPostService(env.posts, env.reactions, env.tags, env.media)
	env.reactSvc = NewReactionService(env.posts, env.comments, env.reactions, env.events)
	env.comment = NewCommentService(env.posts, env.comments, env.reactions, env.events)
	env.vaultSvc = NewVaultService(env.vaults, env.posts, env.users, env.reactions)
	env.userSvc = NewUserService(env.users, noCache)
	env.reportSvc = NewReportService(env.reports, true)
	return env
}

func (e *testEnv) user(t *testing.T, name string) models.Identity {
	t.Helper()
	u := &models.User{Username: name, Password: "hash"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u.Identity()
}

func (e *testEnv) post(t *testing.T, owner models.Identity, title string) *models.Post {
	t.Helper()
	p, err := e.postSvc.Create(context.Background(), owner, PostInput{Title: title})
	require.NoError(t, err)
	return p
}

func upload(name, contentType string, data []byte) Upload {
	return Upload{
		FileDescriptor: media.FileDescriptor{Filename: name, ContentType: contentType, Size: int64(len(data))},
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.HasCode(err, code), "expected %s, got %v", code, err)
}
