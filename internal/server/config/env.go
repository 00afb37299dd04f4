package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SHAREDTODO_"

// parseEnv loads dotenvFile (if it exists) into the process environment
// without overriding variables that are already set, then overlays every
// SHAREDTODO_* variable onto config.
func parseEnv(config *Config, dotenvFile string) error {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvFile, err)
		}
	}

	lookupString("GRPC_ADDR", &config.EndpointAddrGRPC)
	lookupString("DATABASE_DSN", &config.DatabaseDSN)
	lookupString("SECRET_KEY", &config.SecretKey)
	lookupString("TIMEZONE", &config.Timezone)
	lookupString("LOG_FORMAT", &config.LogFormat)
	lookupString("S3_ROOT_USER", &config.S3RootUser)
	lookupString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	lookupString("S3_BUCKET", &config.S3Bucket)
	lookupString("S3_REGION", &config.S3Region)
	lookupString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	if err := lookupDuration("RESET_INTERVAL", &config.ResetInterval); err != nil {
		return err
	}
	if err := lookupDuration("DELETION_GRACE_WINDOW", &config.DeletionGraceWindow); err != nil {
		return err
	}
	if err := lookupInt("SCAN_CONCURRENCY", &config.ScanConcurrency); err != nil {
		return err
	}
	if err := lookupInt("DELETION_QUORUM", &config.DeletionQuorum); err != nil {
		return err
	}

	return nil
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = d
	return nil
}

func lookupInt(name string, dst *int) error {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}
