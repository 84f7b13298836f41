package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports"
	"github.com/kamal-hamza/pictag/internal/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS assets (
	position      INTEGER NOT NULL,
	project       TEXT NOT NULL,
	filename      TEXT NOT NULL,
	relative_path TEXT PRIMARY KEY,
	tags          TEXT NOT NULL DEFAULT '',
	tag_source    TEXT NOT NULL DEFAULT 'ai'
);
CREATE INDEX IF NOT EXISTS idx_assets_position ON assets(position);
`

// SQLiteCatalogStore persists the catalog in a single-table SQLite database.
// The logical schema matches the CSV columns; position keeps catalog order.
type SQLiteCatalogStore struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewSQLiteCatalogStore creates a store backed by the database file at path
func NewSQLiteCatalogStore(path string, log *zap.Logger) *SQLiteCatalogStore {
	return &SQLiteCatalogStore{
		path: path,
		log:  logger.OrNop(log),
	}
}

var _ ports.CatalogStore = (*SQLiteCatalogStore)(nil)

// Location returns the database file path
func (s *SQLiteCatalogStore) Location() string {
	return s.path
}

func (s *SQLiteCatalogStore) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Load reads all rows ordered by position.
// The database file is never created here; a missing file is ErrStoreUnavailable.
func (s *SQLiteCatalogStore) Load(ctx context.Context) ([]domain.AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, s.path)
		}
		return nil, fmt.Errorf("failed to stat catalog: %w", err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT project, filename, relative_path, tags, tag_source FROM assets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	records := []domain.AssetRecord{}
	for rows.Next() {
		var project, filename, relPath, tags, source string
		if err := rows.Scan(&project, &filename, &relPath, &tags, &source); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}

		tagSource, err := domain.ParseTagSource(source)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", relPath, err)
		}

		records = append(records, domain.AssetRecord{
			Project:      project,
			Filename:     filename,
			RelativePath: relPath,
			Tags:         domain.ParseTags(tags),
			TagSource:    tagSource,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}

	return records, nil
}

// SaveAll replaces every row inside one transaction
func (s *SQLiteCatalogStore) SaveAll(ctx context.Context, records []domain.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("%w: failed to create catalog directory: %v", domain.ErrPersistFailure, err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistFailure, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM assets`); err != nil {
		return fmt.Errorf("%w: clear: %v", domain.ErrPersistFailure, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assets (position, project, filename, relative_path, tags, tag_source) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", domain.ErrPersistFailure, err)
	}
	defer stmt.Close()

	for i, r := range records {
		source := r.TagSource
		if source == "" {
			source = domain.TagSourceAI
		}
		if _, err := stmt.ExecContext(ctx, i, r.Project, r.Filename, r.RelativePath, r.Tags.String(), string(source)); err != nil {
			return fmt.Errorf("%w: insert %s: %v", domain.ErrPersistFailure, r.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistFailure, err)
	}

	s.log.Debug("catalog saved", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}
