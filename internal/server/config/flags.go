package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/authrelay/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-t", "-k", "-m", "-w", "-u", "-p", "-b", "-g", "-e", "-o",
	"-store", "-sqlite", "-cost", "-gen-url", "-log",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    token signing secret
//	-t int       token validity, minutes
//	-k string    generation API key
//	-m string    generation model
//	-w int       generation timeout, seconds
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint
//	-o string    S3 object key holding the user collection
//	-store       credential store backend (sqlite, postgres, s3)
//	-sqlite      SQLite database file
//	-cost        bcrypt cost
//	-gen-url     generation API base URL
//	-log         log backend (slog, zap)
//
// Only the flags above are picked out of args, see flagx.FilterArgs.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.GenerationAPIKey, "k", config.GenerationAPIKey, "generation API key")
	fs.StringVar(&config.GenerationModel, "m", config.GenerationModel, "generation model")
	generationTimeout := fs.Int("w", int(config.GenerationTimeout.Seconds()), "generation timeout (in seconds)")
	fs.StringVar(&config.GenerationBaseURL, "gen-url", config.GenerationBaseURL, "generation API base URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3ObjectKey, "o", config.S3ObjectKey, "S3 object key")

	fs.StringVar(&config.StoreBackend, "store", config.StoreBackend, "credential store backend")
	fs.StringVar(&config.SQLitePath, "sqlite", config.SQLitePath, "SQLite database file")
	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	// Minute and second flags would truncate finer values from JSON, so
	// they only apply when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		case "w":
			config.GenerationTimeout = time.Duration(*generationTimeout) * time.Second
		}
	})
}
