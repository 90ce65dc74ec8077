package config

import (
	"flag"
	"fmt"
)

const (
	defaultBackupLimit = 10
	maxBackupLimit     = 100
)

// server selection shared by every canvasctl subcommand; empty keeps CANVAS_API_ENDPOINT
func endpointFlags(fs *flag.FlagSet, f *Flags) {
	fs.StringVar(&f.Endpoint, "endpoint", "", "canvas server base URL")
}

// parses CLI flags for the backups subcommand
func ParseBackupsFlags(args []string) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("backups", flag.ContinueOnError)
	endpointFlags(fs, &f)
	fs.IntVar(&f.Limit, "limit", defaultBackupLimit, "number of backups to list, newest first")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	if f.Limit <= 0 || f.Limit > maxBackupLimit {
		return Flags{}, fmt.Errorf("-limit must be between 1 and %d, got %d", maxBackupLimit, f.Limit)
	}

	return f, nil
}

// parses CLI flags for the restore subcommand
func ParseRestoreFlags(args []string) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	endpointFlags(fs, &f)
	fs.IntVar(&f.Index, "index", -1, "backup position to restore, 0 is the newest")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	if f.Index < 0 {
		return Flags{}, fmt.Errorf("-index is required")
	}

	return f, nil
}

// parses CLI flags for the reset subcommand
func ParseResetFlags(args []string) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	endpointFlags(fs, &f)
	fs.BoolVar(&f.Yes, "yes", false, "confirm clearing the canvas")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return f, nil
}

// applies -endpoint on top of cfg
func (f Flags) Apply(cfg *ClientConfig) error {
	if f.Endpoint != "" {
		cfg.Endpoint = f.Endpoint
	}

	return cfg.Validate()
}
