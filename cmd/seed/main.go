// Command main runs the database seeder for KnoWhere.
package main

import (
	"context"
	"flag"
	"log"

	"knowhere/internal/config"
	"knowhere/internal/database"
	"knowhere/internal/repository"
	"knowhere/internal/seed"
)

func main() {
	numEvents := flag.Int("events", 25, "Number of events to create")
	shouldClean := flag.Bool("clean", true, "Clean the events table before seeding")
	pastRatio := flag.Float64("past-ratio", 0.2, "Fraction of events scheduled in the past")
	preset := flag.String("preset", "", "Path to a YAML preset of curated events")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := repository.NewEventRepository(db)
	seeder := seed.NewSeeder(repo, seed.Options{
		NumEvents:   *numEvents,
		ShouldClean: *shouldClean,
		PastRatio:   *pastRatio,
	})

	ctx := context.Background()

	if *preset != "" {
		p, err := seed.LoadPreset(*preset)
		if err != nil {
			log.Fatalf("Preset load failed: %v", err)
		}
		events, err := seeder.ApplyPreset(ctx, p)
		if err != nil {
			log.Fatalf("Preset seeding failed: %v", err)
		}
		log.Printf("Applied preset %q: %d events", p.Name, len(events))
		return
	}

	if _, err := seeder.Run(ctx); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
