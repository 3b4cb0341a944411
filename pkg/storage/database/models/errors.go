package models

import "errors"

var (
	// ErrKeyNotFound is returned when no key matches a lookup, including
	// lookups scoped to an owner that does not hold the key.
	ErrKeyNotFound = errors.New("api key not found")
	// ErrUsageExceeded is returned when the usage limit blocked an increment.
	ErrUsageExceeded = errors.New("api key usage exhausted")
)
