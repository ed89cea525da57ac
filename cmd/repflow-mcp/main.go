package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/repflow/internal/config"
	"github.com/claude/repflow/internal/mcp"
	"github.com/claude/repflow/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	remoteURL := flag.String("remote", "", "RepFlow server URL; query over HTTP instead of connecting to the database")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repflow-mcp", Version)
		return
	}

	// stdio transport owns stdout, so logs go to stderr
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource

	if *remoteURL != "" {
		ds = mcp.NewHTTPClient(*remoteURL)
		log.Info("MCP server starting", "mode", "remote", "server", *remoteURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		ds = db
		log.Info("MCP server starting", "mode", "local")
	}

	s := mcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("MCP server error", "error", err)
		os.Exit(1)
	}
}
