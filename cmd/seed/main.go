// Command seed fills the database with demo authors, editors and publications.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"pubhub/internal/bootstrap"
	"pubhub/internal/config"
	"pubhub/internal/middleware"
	"pubhub/internal/seed"
)

func main() {
	authors := flag.Int("authors", seed.DefaultOptions.Authors, "Number of authors to create")
	editors := flag.Int("editors", seed.DefaultOptions.Editors, "Number of editors to create")
	publications := flag.Int("publications", seed.DefaultOptions.Publications, "Number of publications to submit")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.SetupLogger(cfg.Env)

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "pubhub-seed"})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Close(ctx)
	}()

	log.Printf("Target: %d authors, %d editors, %d publications, clean=%v",
		*authors, *editors, *publications, *shouldClean)

	summary, err := seed.Run(context.Background(), rt.DB, seed.Options{
		Authors:      *authors,
		Editors:      *editors,
		Publications: *publications,
		Clean:        *shouldClean,
		Seed:         *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d publications, %d decisions, %d views, %d reactions",
		summary.Users, summary.Publications, summary.Decisions, summary.Views, summary.Reactions)
}
