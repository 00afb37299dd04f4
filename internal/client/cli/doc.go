// Package cli implements the sharedtodo command-line client.
//
// Every subcommand loads the client configuration (defaults, optional JSON
// file, .env and SHAREDTODO_* variables, then flags), opens one gRPC
// connection and performs a single call. watch keeps the Subscribe stream
// open and prints a snapshot whenever the space changes.
//
// Output is a table on a terminal and JSON otherwise; --output overrides the
// detection.
package cli
