package ports

import (
	"context"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// CatalogStore defines the port for catalog persistence
type CatalogStore interface {
	// Load returns every record in catalog order.
	// Returns domain.ErrStoreUnavailable when the backing resource does not exist.
	Load(ctx context.Context) ([]domain.AssetRecord, error)

	// SaveAll atomically replaces the whole persisted catalog.
	// Failures wrap domain.ErrPersistFailure.
	SaveAll(ctx context.Context, records []domain.AssetRecord) error

	// Location describes where the catalog lives (file path, DSN)
	Location() string
}

// Scanner defines the port for discovering assets on disk
type Scanner interface {
	// Scan returns new records for every asset below root whose relative
	// path is not in known. Existing records are never inspected.
	Scan(ctx context.Context, root string, known map[string]struct{}) ([]domain.AssetRecord, error)
}
