package storage

import dErrors "soultribe/pkg/domainerrors"

var (
	// ErrNotFound keeps storage-specific 404s consistent across in-memory and
	// PostgreSQL implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")
)
