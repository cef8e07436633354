// Command main runs the database seeder for Vaultbox.
package main

import (
	"flag"
	"log"

	"vaultbox/internal/config"
	"vaultbox/internal/database"
	"vaultbox/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 150, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	catalogPath := flag.String("tags", "seed/tags.yml", "Tag catalog YAML file")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded accounts cannot log in")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	catalog, err := seed.LoadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *fast,
		DryRun:      *dryRun,
		Catalog:     catalog,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d posts, %d vaults.", res.Users, res.Posts, res.Vaults)
	if !*fast {
		log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
	}
}
