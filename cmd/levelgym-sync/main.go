package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/levelgym/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Usage:
  levelgym-sync -server <URL> [-api-key KEY] push <snapshot.json[.gz]>
  levelgym-sync -server <URL> pull <backup.json[.gz]>

`

func main() {
	serverURL := flag.String("server", os.Getenv("LEVELGYM_URL"), "LevelGym server URL (e.g. https://levelgym.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LEVELGYM_AUTH_API_KEY"), "API key for push")
	dryRun := flag.Bool("dry-run", false, "validate the snapshot but don't send it")
	force := flag.Bool("force", false, "push even if this snapshot was already pushed")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("levelgym-sync", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	args := flag.Args()
	if len(args) != 2 || (args[0] != "push" && args[0] != "pull") {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".levelgym-sync"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(*serverURL, *apiKey), state, *dryRun, *force, log)

	switch args[0] {
	case "pull":
		if err := uploader.Pull(ctx, args[1]); err != nil {
			log.Error("pull failed", "error", err)
			os.Exit(1)
		}
	case "push":
		if *apiKey == "" && !*dryRun {
			fmt.Fprintf(os.Stderr, "Error: -api-key is required for push\n")
			os.Exit(1)
		}
		stats, err := uploader.Push(ctx, args[1])
		if err != nil {
			log.Error("push failed", "error", err)
			os.Exit(1)
		}
		printStats(stats)
	}
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Push Summary ===")
	if stats.Skipped {
		fmt.Println("  Skipped: already pushed (use -force to resend)")
	}
	fmt.Printf("  Exercises:   %d\n", stats.Exercises)
	fmt.Printf("  Workouts:    %d\n", stats.Workouts)
	fmt.Printf("  Sessions:    %d\n", stats.Sessions)
	if stats.Server.TotalLevel > 0 {
		fmt.Println()
		fmt.Printf("  Total level: %d\n", stats.Server.TotalLevel)
		fmt.Printf("  Total XP:    %d\n", stats.Server.TotalXP)
	}
	fmt.Println()
}
