package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"codeberg.org/sharedcanvas/server/internal/config"
	"codeberg.org/sharedcanvas/server/internal/logger"
	"codeberg.org/sharedcanvas/server/internal/tui"
)

func usage() {
	fmt.Println("Usage: canvasctl <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  backups   - list the most recent canvas backups")
	fmt.Println("  restore   - replace the canvas with a backup")
	fmt.Println("  reset     - clear the canvas (a backup is written first)")
	fmt.Println("\nOptions:")
	fmt.Println("  -endpoint <url>    - server base URL, overrides CANVAS_API_ENDPOINT")
	fmt.Println("  -limit <n>         - backups: how many to list (default 10)")
	fmt.Println("  -index <n>         - restore: backup position, 0 is the newest")
	fmt.Println("  -yes               - reset: confirm")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var (
		flags config.Flags
		err   error
	)

	switch command {
	case "backups":
		flags, err = config.ParseBackupsFlags(args)
	case "restore":
		flags, err = config.ParseRestoreFlags(args)
	case "reset":
		flags, err = config.ParseResetFlags(args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal("invalid arguments", "command", command, "error", err)
	}

	cfg, err := config.LoadClientEnvironment()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	if err := flags.Apply(cfg); err != nil {
		logger.Fatal("invalid endpoint", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// restore and reset run inside the server, which orders them against live strokes
	api := tui.NewClient(cfg.Endpoint).WithOpsToken(cfg.OpsToken)

	switch command {
	case "backups":
		err = ListBackups(ctx, os.Stdout, api, flags)
	case "restore":
		err = Restore(ctx, os.Stdout, api, flags)
	case "reset":
		err = Reset(ctx, os.Stdout, api, flags)
	}

	if err != nil {
		logger.FatalErr(err, "command failed", "command", command, "endpoint", cfg.Endpoint)
	}
}
