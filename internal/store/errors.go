package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")

	// ErrClaimSuperseded is returned when a terminal or retry write finds the
	// lock no longer held by the writer: the lease expired and another worker
	// reclaimed the job. The caller must discard its result.
	ErrClaimSuperseded = errors.New("claim superseded")
)
