package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/claude/repflow/internal/journal"
	"github.com/claude/repflow/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "RepFlow server URL (e.g. https://repflow.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("REPFLOW_API_KEY"), "ingest API key (defaults to REPFLOW_API_KEY)")
	journalDir := flag.String("journal", "", "journal directory (defaults to ~/.repflow)")
	dryRun := flag.Bool("dry-run", false, "report what would be uploaded without sending")
	batchSize := flag.Int("batch-size", 50, "results per ingest request")
	prune := flag.Bool("prune", false, "delete uploaded entries from the journal afterwards")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repflow-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Usage: repflow-upload -server <URL> [-api-key KEY] [-dry-run] [-batch-size N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	dir := *journalDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".repflow")
	}

	j, err := journal.Open(dir)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}
	defer j.Close()

	if *dryRun {
		log.Info("DRY RUN mode — journal entries will be listed but not sent")
	}

	client := upload.NewClient(*serverURL, *apiKey)
	uploader := upload.New(client, j, *dryRun, *batchSize, log)
	stats, err := uploader.Run()
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}
	printStats(stats)

	if *prune && !*dryRun {
		pruned, err := j.Prune()
		if err != nil {
			log.Error("prune failed", "error", err)
			os.Exit(1)
		}
		log.Info("journal pruned", "removed", pruned)
	}

	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Pending results:  %d\n", stats.Pending)
	fmt.Printf("  Batches sent:     %d\n", stats.BatchesSent)
	fmt.Printf("  Results sent:     %d\n", stats.ResultsSent)
	fmt.Printf("  Results skipped:  %d\n", stats.ResultsSkipped)
	fmt.Printf("  Server rejected:  %d\n", stats.Rejected)

	if len(stats.UnknownTypes) > 0 {
		fmt.Printf("\n  Techniques unknown to server (retained in journal):\n")
		for _, t := range stats.UnknownTypes {
			fmt.Printf("    - %s\n", t)
		}
	}
	fmt.Println()
}
