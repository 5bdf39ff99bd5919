// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNoDefaultTemplate means the template registry has no "default"
	// entry to fall back on. It is a site misconfiguration, not a page error.
	ErrNoDefaultTemplate = errors.New("no default template")

	ErrInvalidSource = errors.New("invalid source")

	// ErrNotReady means no site snapshot has been loaded yet.
	ErrNotReady = errors.New("not ready")
)
