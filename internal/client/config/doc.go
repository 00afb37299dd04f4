// Package config loads runtime configuration for the shared list CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file passed to LoadConfig (the CLI's --config flag).
//  3. A .env file loaded with godotenv, then SHAREDTODO_* variables.
//  4. Command-line flags, applied by the cli package.
//
// # Environment
//
//	SHAREDTODO_SERVER_ADDR   address:port of the backend gRPC endpoint
//	SHAREDTODO_TOKEN         access token
//	SHAREDTODO_SPACE         default space id
//	SHAREDTODO_TIMEOUT       per-call timeout ("10s" or seconds)
//	SHAREDTODO_OUTPUT        table | json
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "...",
//	  "space_id": "home",
//	  "request_timeout": "10s",
//	  "output": "json"
//	}
package config
