// Command mediasweep removes files under the upload root that no media record
// references, such as leftovers from interrupted uploads.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vaultbox/internal/config"
	"vaultbox/internal/database"
	"vaultbox/internal/media"
	"vaultbox/internal/middleware"
	"vaultbox/internal/repository"
	"vaultbox/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List orphaned files without deleting them")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	storage, err := media.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to open upload storage: %v", err)
	}

	svc := service.NewMediaService(
		repository.NewPostRepository(db),
		repository.NewMediaRepository(db),
		storage,
		media.NewValidator(cfg),
		media.NewThumbnailer(cfg, media.NewFFmpegSampler(cfg.FFmpegBin)),
		nil,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orphans, err := svc.SweepOrphans(ctx, *dryRun)
	if err != nil {
		log.Fatalf("❌ Sweep failed: %v", err)
	}

	verb := "Removed"
	if *dryRun {
		verb = "Would remove"
	}
	for _, rel := range orphans {
		log.Printf("%s %s", verb, rel)
	}
	log.Printf("✨ %s %d orphaned file(s)", verb, len(orphans))
}
