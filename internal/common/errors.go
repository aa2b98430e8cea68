// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Account errors. The messages are shown to clients as-is.
	ErrDuplicateEmail     = errors.New("Email already in use.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrUnknownClient      = errors.New("client account does not exist")

	// Auth errors (absent, invalid, malformed or expired token).
	ErrMissingToken = errors.New("No token provided.")
	ErrInvalidToken = errors.New("Invalid token.")

	// Intake workflow errors, one per side-effecting step.
	ErrRequestCreation = errors.New("request creation failed")
	ErrProjectCreation = errors.New("project creation failed")
	ErrFileRelocation  = errors.New("file relocation failed")
)
