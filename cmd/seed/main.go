// Command seed fills the configured store with demo data or a YAML fixture set.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"photoshare/internal/bootstrap"
	"photoshare/internal/config"
	"photoshare/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of demo users to create")
	photosPerUser := flag.Int("photos", 3, "Photos per demo user")
	commentsPerPhoto := flag.Int("comments", 2, "Comments per demo photo")
	likeRatio := flag.Float64("likes", 0.3, "Chance that a user likes a photo")
	fixtures := flag.String("fixtures", "", "Apply a YAML fixture file instead of generating demo data")
	shouldClean := flag.Bool("clean", false, "Delete every account before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	files, err := bootstrap.OpenFiles(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open image store: %v", err)
	}

	s := seed.NewSeeder(store, files)
	if err := s.EnsureSchemaInfo(ctx); err != nil {
		log.Fatalf("Schema info failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *fixtures != "" {
		f, err := os.Open(*fixtures)
		if err != nil {
			log.Fatalf("Failed to open fixtures: %v", err)
		}
		defer f.Close()

		fx, err := seed.LoadFixtures(f)
		if err != nil {
			log.Fatalf("Failed to read fixtures: %v", err)
		}
		if _, err := s.ApplyFixtures(ctx, fx); err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		return
	}

	if _, err := s.SeedDemo(ctx, seed.Options{
		Users:            *numUsers,
		PhotosPerUser:    *photosPerUser,
		CommentsPerPhoto: *commentsPerPhoto,
		LikeRatio:        *likeRatio,
	}); err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	log.Printf("All demo users have the password: %s", seed.DefaultPassword)
}
