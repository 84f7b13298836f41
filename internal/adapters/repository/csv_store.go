package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports"
	"github.com/kamal-hamza/pictag/internal/logger"
)

// Column names of the persisted catalog
const (
	ColumnProject      = "project"
	ColumnFilename     = "filename"
	ColumnRelativePath = "relative_path"
	ColumnTags         = "tags"
	ColumnTagSource    = "tag_source"
)

// CatalogHeader is the header row written on every save
var CatalogHeader = []string{ColumnProject, ColumnFilename, ColumnRelativePath, ColumnTags, ColumnTagSource}

// CSVCatalogStore persists the catalog as a delimited file with a header row
type CSVCatalogStore struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewCSVCatalogStore creates a store backed by the file at path
func NewCSVCatalogStore(path string, log *zap.Logger) *CSVCatalogStore {
	return &CSVCatalogStore{
		path: path,
		log:  logger.OrNop(log),
	}
}

// Ensure it implements the interface
var _ ports.CatalogStore = (*CSVCatalogStore)(nil)

// Location returns the catalog file path
func (s *CSVCatalogStore) Location() string {
	return s.path
}

// Load reads every row of the catalog file
func (s *CSVCatalogStore) Load(ctx context.Context) ([]domain.AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreUnavailable, s.path)
		}
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return s.decode(f)
}

func (s *CSVCatalogStore) decode(r io.Reader) ([]domain.AssetRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Zero-byte file: a catalog that was created but never filled
			return []domain.AssetRecord{}, nil
		}
		return nil, fmt.Errorf("%w: failed to read header: %v", domain.ErrMalformedCatalog, err)
	}

	cols := indexColumns(header)
	_, hasPath := cols[ColumnRelativePath]
	_, hasProject := cols[ColumnProject]
	_, hasFilename := cols[ColumnFilename]
	if !hasPath && !(hasProject && hasFilename) {
		return nil, fmt.Errorf("%w: header must contain %s or %s+%s",
			domain.ErrMalformedCatalog, ColumnRelativePath, ColumnProject, ColumnFilename)
	}

	var records []domain.AssetRecord
	seen := make(map[string]struct{})
	line := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedCatalog, line, err)
		}
		if isBlankRow(row) {
			continue
		}

		record, err := rowToRecord(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if _, dup := seen[record.RelativePath]; dup {
			s.log.Warn("duplicate catalog row ignored",
				zap.String("relative_path", record.RelativePath),
				zap.Int("line", line))
			continue
		}
		seen[record.RelativePath] = struct{}{}
		records = append(records, record)
	}

	if records == nil {
		records = []domain.AssetRecord{}
	}
	return records, nil
}

// SaveAll replaces the catalog file. The new content is written to a temp
// file in the same directory and renamed over the old one, so readers see
// either the previous catalog or the new one, never a partial write.
func (s *CSVCatalogStore) SaveAll(ctx context.Context, records []domain.AssetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create catalog directory: %v", domain.ErrPersistFailure, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := encode(tmp, records); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistFailure, err)
	}
	committed = true

	s.log.Debug("catalog saved", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

func encode(w io.Writer, records []domain.AssetRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CatalogHeader); err != nil {
		return err
	}
	for _, r := range records {
		source := r.TagSource
		if source == "" {
			source = domain.TagSourceAI
		}
		row := []string{r.Project, r.Filename, r.RelativePath, r.Tags.String(), string(source)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, exists := cols[name]; !exists {
			cols[name] = i
		}
	}
	return cols
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowToRecord(row []string, cols map[string]int) (domain.AssetRecord, error) {
	project := cell(row, cols, ColumnProject)
	filename := cell(row, cols, ColumnFilename)
	// Catalogs written on Windows carry backslash separators
	relPath := strings.ReplaceAll(cell(row, cols, ColumnRelativePath), "\\", "/")

	if relPath == "" {
		if project == "" || filename == "" {
			return domain.AssetRecord{}, fmt.Errorf("%w: row has no %s", domain.ErrMalformedCatalog, ColumnRelativePath)
		}
		relPath = domain.RelativePathFor(project, filename)
	}
	if project == "" || filename == "" {
		if dir, base, ok := strings.Cut(relPath, "/"); ok {
			if project == "" {
				project = dir
			}
			if filename == "" {
				filename = base
			}
		}
	}

	source, err := domain.ParseTagSource(cell(row, cols, ColumnTagSource))
	if err != nil {
		return domain.AssetRecord{}, err
	}

	return domain.AssetRecord{
		Project:      project,
		Filename:     filename,
		RelativePath: relPath,
		Tags:         domain.ParseTags(cell(row, cols, ColumnTags)),
		TagSource:    source,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
