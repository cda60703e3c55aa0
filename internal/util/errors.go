package util

import "errors"

// Sentinel errors for the store's failure taxonomy. Callers match them with
// errors.Is; the wrapped cause carries the engine message.
var (
	// ErrOpen indicates the database file could not be created or opened
	ErrOpen = errors.New("database open failed")

	// ErrQuery indicates a read statement failed or a cell could not be read
	ErrQuery = errors.New("query failed")

	// ErrWrite indicates a write or DDL statement failed
	ErrWrite = errors.New("write failed")

	// ErrTransaction indicates a begin/commit/rollback failure or misuse
	ErrTransaction = errors.New("transaction failed")

	// ErrCorrupt indicates the stored schema version is missing or unreadable
	ErrCorrupt = errors.New("database corrupt")

	// ErrNotFound indicates a required row was not found
	ErrNotFound = errors.New("not found")
)
