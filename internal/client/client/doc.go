// Package client contains the client side of the shared list service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     item management, completion and deletion votes, history and the
//     Subscribe snapshot stream.
//  2. A concrete gRPC implementation (see GRPCClient) that speaks the JSON
//     codec registered by package api, injects the access token through
//     unary and stream interceptors and maps gRPC status codes to sentinel
//     errors.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrInvalidRequest.
//
// All operations accept context.Context and honor cancellation and timeouts.
package client
