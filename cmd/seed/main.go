// Command main runs the database seeder for Showcase.
package main

import (
	"context"
	"flag"
	"log"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/seed"
	"showcase/internal/service"
	"showcase/internal/storage"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numProjects := flag.Int("projects", 40, "Number of projects to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}

	s := seed.NewSeeder(db, service.NewImageService(store, cfg), seed.Options{
		NumUsers:    *numUsers,
		NumProjects: *numProjects,
		ShouldClean: *shouldClean,
		Seed:        *seedValue,
	})
	if err := s.Run(context.Background()); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Printf("📧 All seeded users have the password: %s", seed.Password)
}
