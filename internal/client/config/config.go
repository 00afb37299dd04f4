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

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "SHAREDTODO_"

// Config holds runtime settings for the shared list CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: bearer token sent with every authenticated call.
//   - SpaceID: default space used by commands that take one.
//   - RequestTimeout: deadline applied to each unary call.
//   - Output: "table", "json" or "" to pick by terminal detection.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	SpaceID            string
	RequestTimeout     time.Duration
	Output             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the JSON file (when jsonFile is set) and the environment. Command-line
// flags are applied on top by the caller.
func LoadConfig(jsonFile, dotenvFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, jsonFile); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, dotenvFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(cfg *Config, dotenvFile string) error {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvFile, err)
		}
	}

	if v := os.Getenv(EnvPrefix + "SERVER_ADDR"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv(EnvPrefix + "TOKEN"); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv(EnvPrefix + "SPACE"); v != "" {
		cfg.SpaceID = v
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			// bare numbers are seconds
			n, nerr := strconv.Atoi(v)
			if nerr != nil {
				return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
			}
			d = time.Duration(n) * time.Second
		}
		cfg.RequestTimeout = d
	}
	return nil
}
