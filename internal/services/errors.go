// Package services defines the business logic for caching compound summaries.
// This file centralizes the service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed by
// the CLI and the handler layer.
package services

import "errors"

var (
	// ErrUnsupportedCompound is returned, before any fetch or store access,
	// when a code is not on the allow-list.
	ErrUnsupportedCompound = errors.New("compound is not supported")

	// ErrCompoundNotFound indicates that a supported compound has no cached
	// summary yet. It is a business outcome, not a failure of the store.
	ErrCompoundNotFound = errors.New("compound summary not cached")
)
