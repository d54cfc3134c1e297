// Package common defines shared helpers and sentinel errors used across
// LoginLink components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorUnauthenticated = errors.New("unauthenticated")

	// Validation errors (caller bugs, surfaced immediately).
	ErrInvalidArgument = errors.New("invalid argument")

	// Redemption errors. ErrInvalidToken is the single generic failure for
	// the whole redemption path; an unknown user id and a token mismatch
	// are indistinguishable through it.
	ErrInvalidToken = errors.New("invalid one-time login token")
)
