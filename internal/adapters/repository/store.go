package repository

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/core/ports"
)

// Supported catalog backends
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// NewCatalogStore creates the store for the configured backend
func NewCatalogStore(backend, path string, log *zap.Logger) (ports.CatalogStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendCSV:
		return NewCSVCatalogStore(path, log), nil
	case BackendSQLite:
		return NewSQLiteCatalogStore(path, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (expected %s or %s)", backend, BackendCSV, BackendSQLite)
	}
}
