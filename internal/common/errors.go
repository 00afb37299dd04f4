// Package common holds what the server, the gRPC layer and the client all
// agree on: metadata keys, the history date layout and the sentinel errors
// that the gRPC layer turns into status codes. Match them with errors.Is.
package common

import "errors"

var (
	// ErrorNotFound: the item does not exist, or was removed by a deletion
	// quorum before the call reached it.
	ErrorNotFound = errors.New("not found")

	// ErrorValidation: empty or oversized text, an unknown recurrence kind,
	// a weekday outside 0..6 and similar caller mistakes.
	ErrorValidation = errors.New("validation error")

	// ErrorPersistence wraps any store failure that is not ErrorNotFound.
	ErrorPersistence = errors.New("persistence failure")
	ErrorInternal    = errors.New("internal error")

	// Member authentication.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
