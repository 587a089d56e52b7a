package config

import (
	"flag"
	"os"

	"github.com/webstarter/authkit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-m          use the in-process mock provider instead of the HTTP backend
//	-s string   base URL of the auth backend (default from Config)
//	-f string   path to the sqlite session file; empty keeps it in memory
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-m", "-s", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.BoolVar(&cfg.UseMock, "m", cfg.UseMock, "use the in-process mock provider")
	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the auth backend")
	fs.StringVar(&cfg.SessionDBPath, "f", cfg.SessionDBPath, "sqlite session file path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
