package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sharedtodo/internal/flagx"
	"github.com/dmitrijs2005/sharedtodo/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// Absent or zero-valued keys leave the corresponding Config field untouched.
type JsonConfig struct {
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	Timezone            string         `json:"timezone"`
	ResetInterval       timex.Duration `json:"reset_interval"`
	ScanConcurrency     int            `json:"scan_concurrency"`
	DeletionQuorum      int            `json:"deletion_quorum"`
	DeletionGraceWindow timex.Duration `json:"deletion_grace_window"`
	LogFormat           string         `json:"log_format"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag in args. Without either flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFileFlag(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Timezone, c.Timezone)
	if c.ResetInterval.Duration != 0 {
		config.ResetInterval = c.ResetInterval.Duration
	}
	if c.ScanConcurrency != 0 {
		config.ScanConcurrency = c.ScanConcurrency
	}
	if c.DeletionQuorum != 0 {
		config.DeletionQuorum = c.DeletionQuorum
	}
	if c.DeletionGraceWindow.Duration != 0 {
		config.DeletionGraceWindow = c.DeletionGraceWindow.Duration
	}
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
