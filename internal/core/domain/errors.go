package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable means the backing catalog resource does not exist yet.
	// Callers treat it as an empty catalog.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrNotFound means no record has the requested relative path
	ErrNotFound = errors.New("asset not found in catalog")

	// ErrPersistFailure wraps any failure to write the catalog
	ErrPersistFailure = errors.New("failed to persist catalog")

	// ErrMalformedCatalog means the persisted catalog could not be interpreted
	ErrMalformedCatalog = errors.New("malformed catalog")

	// ErrAssetRootMissing means the configured asset root is not a directory
	ErrAssetRootMissing = errors.New("asset root not found")
)

// AssetUnreadableError reports a single asset that can't be opened or decoded.
// It is a per-asset warning and never aborts a batch.
type AssetUnreadableError struct {
	Path string
	Err  error
}

func (e *AssetUnreadableError) Error() string {
	return fmt.Sprintf("cannot read asset %s: %v", e.Path, e.Err)
}

func (e *AssetUnreadableError) Unwrap() error {
	return e.Err
}
