package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/repflow/internal/config"
	"github.com/claude/repflow/internal/importer"
	"github.com/claude/repflow/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	resultsPath := flag.String("path", "", "directory of exported .json result files (required)")
	userID := flag.Int("user", 1, "user ID assigned to payloads that carry none")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *resultsPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repflow-import -config config.yaml -path /path/to/results [-user N] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*resultsPath)
	if err != nil || !info.IsDir() {
		log.Error("results path does not exist or is not a directory", "path", *resultsPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Run import
	imp := importer.New(db, log, *dryRun)
	stats, err := imp.Import(ctx, *resultsPath, *userID)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("import complete")
}

func printStats(stats *importer.Stats) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("  Files processed:  %d\n", stats.FilesProcessed)
	fmt.Printf("  Files skipped:    %d\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Results read:     %d\n", stats.ResultsRead)
	fmt.Printf("  Results inserted: %d\n", stats.ResultsInserted)
	fmt.Printf("  Results skipped:  %d (duplicates)\n", stats.ResultsSkipped)
	fmt.Printf("  Results rejected: %d\n", stats.ResultsRejected)
	fmt.Println()
}
