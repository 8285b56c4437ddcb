package config

import (
	"flag"
	"os"
	"time"

	"github.com/centinela-app/centinela/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-g string   websocket URL of the realtime gateway
//	-p string   Firestore project id
//	-d string   SQLite DSN of the local cache
//	-t int      precise location timeout (seconds)
//	-u string   user id of the session
//	-n string   display name of the session
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-g", "-p", "-d", "-t", "-u", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.GatewayURL, "g", cfg.GatewayURL, "websocket URL of the realtime gateway")
	fs.StringVar(&cfg.FirestoreProjectID, "p", cfg.FirestoreProjectID, "Firestore project id")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN of the local cache")
	preciseTimeout := fs.Int("t", int(cfg.PreciseLocationTimeout.Seconds()), "precise location timeout (in seconds)")
	fs.StringVar(&cfg.UserID, "u", cfg.UserID, "user id of the session")
	fs.StringVar(&cfg.UserName, "n", cfg.UserName, "display name of the session")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PreciseLocationTimeout = time.Duration(*preciseTimeout) * time.Second
}
