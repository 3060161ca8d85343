package recommend

import (
	"errors"

	"github.com/hyperjump/osusume/internal/vector"
)

var (
	// ErrNotFound is returned when the queried product is not in the current catalog.
	ErrNotFound = vector.ErrNotFound
	// ErrEmptyInput is returned when none of the cart ids are in the current catalog.
	ErrEmptyInput = vector.ErrEmptyInput
	// ErrNotReady is returned by queries before the first successful rebuild.
	ErrNotReady = errors.New("recommendation engine has no catalog loaded")
	// ErrStaleGeneration is returned by Rebuild when the snapshot is not newer than the
	// published one.
	ErrStaleGeneration = errors.New("snapshot generation is not newer than the current one")
)
