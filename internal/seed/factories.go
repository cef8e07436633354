// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"vaultbox/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seedValue := opts.RandomSeed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	gofakeit.Seed(seedValue)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seedValue)), nextID: 1000}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	if f.opts.SkipBcrypt {
		f.hash = DefaultPassword
		return f.hash
	}
	hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	f.hash = string(hashed)
	return f.hash
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// Username generates a username that passes registration validation.
func (f *Factory) Username() string {
	name := usernameStrip.ReplaceAllString(gofakeit.Username(), "")
	if len(name) > 26 {
		name = name[:26]
	}
	return fmt.Sprintf("%s_%d", strings.ToLower(name), gofakeit.Number(100, 99999))
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:       f.Username(),
		Password:       f.passwordHash(),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		CreatedAt:      f.createdAt(),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with up to maxTags tags picked from
// tags. It does not persist it.
func (f *Factory) BuildPost(user *models.User, tags []models.Tag, maxTags int) *models.Post {
	post := &models.Post{
		Title:     strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(6)+2), "."),
		UserID:    user.ID,
		CreatedAt: f.createdAt(),
	}
	if len(tags) > 0 && maxTags > 0 {
		for _, i := range f.rng.Perm(len(tags))[:min(maxTags, len(tags))] {
			post.Tags = append(post.Tags, tags[i])
		}
	}
	return post
}

// CreatePost persists a sample post with tags for the given user.
func (f *Factory) CreatePost(user *models.User, tags []models.Tag, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, tags, 1+f.rng.Intn(4))
	for _, override := range overrides {
		override(post)
	}

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: user=%d title=%q tags=%d", post.UserID, post.Title, len(post.Tags))
		return post, nil
	}
	if err := f.db.Omit("User").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a sample comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(f.rng.Intn(12) + 3),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.Omit("User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// React stores user's reaction to post, replacing an earlier one.
func (f *Factory) React(user *models.User, post *models.Post, t models.ReactionType) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(&models.PostReaction{UserID: user.ID, PostID: post.ID, Type: t}).Error
}

// CreateVault persists a vault for user holding posts.
func (f *Factory) CreateVault(user *models.User, posts []*models.Post, privacy models.Privacy) (*models.Vault, error) {
	vault := &models.Vault{
		Title:   fmt.Sprintf("%s %s %d", gofakeit.Adjective(), gofakeit.NounCollectiveThing(), f.rng.Intn(1000)),
		UserID:  user.ID,
		Privacy: privacy,
	}
	if len(vault.Title) > 100 {
		vault.Title = vault.Title[:100]
	}

	if f.opts.DryRun {
		f.nextID++
		vault.ID = f.nextID
		return vault, nil
	}
	return vault, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(vault).Error; err != nil {
			return err
		}
		for _, p := range posts {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.VaultPost{VaultID: vault.ID, PostID: p.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
