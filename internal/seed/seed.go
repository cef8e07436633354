package seed

import (
	"fmt"
	"log"

	"vaultbox/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// SkipBcrypt stores the plain default password; fast, and useless for login.
	SkipBcrypt bool
	DryRun     bool
	MaxDays    int
	RandomSeed int64
	Catalog    Catalog
}

// Result counts what Seed created.
type Result struct {
	Users     int
	Tags      int
	Posts     int
	Comments  int
	Reactions int
	Vaults    int
}

// Seed populates the database with demo users, tags, posts, comments,
// reactions and vaults. Posts carry no files; uploads go through the API.
func Seed(db *gorm.DB, opts Options) (Result, error) {
	var res Result
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return res, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)

	catalogTags, err := opts.Catalog.Tags()
	if err != nil {
		return res, err
	}
	tags := catalogTags
	if !opts.DryRun {
		if tags, err = UpsertTags(db, catalogTags); err != nil {
			return res, err
		}
	}
	res.Tags = len(tags)
	log.Printf("✓ %d tags available", res.Tags)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, u)
	}
	res.Users = len(users)
	log.Printf("✓ %d users created", res.Users)
	if len(users) == 0 {
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		p, err := f.CreatePost(users[f.rng.Intn(len(users))], tags)
		if err != nil {
			return res, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, p)
	}
	res.Posts = len(posts)
	log.Printf("✓ %d posts created", res.Posts)

	for _, p := range posts {
		for i := f.rng.Intn(4); i > 0; i-- {
			if _, err := f.CreateComment(users[f.rng.Intn(len(users))], p); err != nil {
				return res, fmt.Errorf("failed to create comment: %w", err)
			}
			res.Comments++
		}
		for _, u := range users {
			roll := f.rng.Intn(10)
			if roll > 2 {
				continue
			}
			t := models.ReactionLike
			if roll == 0 {
				t = models.ReactionDislike
			}
			if err := f.React(u, p, t); err != nil {
				return res, fmt.Errorf("failed to react: %w", err)
			}
			res.Reactions++
		}
	}
	log.Printf("✓ %d comments and %d reactions created", res.Comments, res.Reactions)

	for _, u := range users {
		if len(posts) == 0 || f.rng.Intn(2) == 0 {
			continue
		}
		privacy := models.PrivacyPrivate
		if f.rng.Intn(2) == 0 {
			privacy = models.PrivacyPublic
		}
		picks := make([]*models.Post, 0, 3)
		for _, i := range f.rng.Perm(len(posts))[:min(3, len(posts))] {
			picks = append(picks, posts[i])
		}
		if _, err := f.CreateVault(u, picks, privacy); err != nil {
			log.Printf("Failed to create vault for %s: %v", u.Username, err)
			continue
		}
		res.Vaults++
	}
	log.Printf("✓ %d vaults created", res.Vaults)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// clearData empties every application table, children first.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []string{
		"reports", "vault_posts", "vaults", "comment_reactions", "post_reactions",
		"comments", "media_files", "post_tags", "posts", "tags", "users",
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
