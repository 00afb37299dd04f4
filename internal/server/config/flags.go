package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/sharedtodo/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-z string     space timezone (IANA name)
//	-i duration   reset job interval
//	-q int        deletion quorum
//	-w duration   creator deletion grace window
//	-l string     log format (json, text, zap)
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// args is first filtered to the flags recognized here using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-z", "-i", "-q", "-w", "-l", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "space timezone")
	fs.DurationVar(&config.ResetInterval, "i", config.ResetInterval, "reset job interval")
	fs.IntVar(&config.DeletionQuorum, "q", config.DeletionQuorum, "deletion quorum")
	fs.DurationVar(&config.DeletionGraceWindow, "w", config.DeletionGraceWindow, "creator deletion grace window")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
