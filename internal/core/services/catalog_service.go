package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports"
	"github.com/kamal-hamza/pictag/internal/logger"
)

// CatalogService owns the authoritative in-memory catalog for one asset root.
//
// Every mutation runs load -> apply -> persist under writeMu, so a rescan and a
// manual edit can't overwrite each other. The snapshot (records, positions,
// index) is only swapped after a successful persist; a failed write leaves it
// exactly as it was.
type CatalogService struct {
	store   ports.CatalogStore
	scanner ports.Scanner
	root    string
	mode    MatchMode
	log     *zap.Logger

	writeMu sync.Mutex

	mu        sync.RWMutex
	loaded    bool
	records   []domain.AssetRecord
	positions map[string]int
	index     *TagIndex
}

// NewCatalogService creates a catalog service
func NewCatalogService(store ports.CatalogStore, scanner ports.Scanner, root string, mode MatchMode, log *zap.Logger) *CatalogService {
	if mode == "" {
		mode = MatchExact
	}
	return &CatalogService{
		store:   store,
		scanner: scanner,
		root:    root,
		mode:    mode,
		log:     logger.OrNop(log),
		index:   BuildTagIndex(nil, mode),
	}
}

// RefreshResponse represents the result of reconciling disk with the catalog
type RefreshResponse struct {
	Added    int
	Total    int
	New      []domain.AssetRecord
	Duration time.Duration
}

// Refresh scans the asset root and appends every undiscovered asset.
// The catalog is only written when something was added.
func (s *CatalogService) Refresh(ctx context.Context) (*RefreshResponse, error) {
	start := time.Now()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(current))
	for _, r := range current {
		known[r.RelativePath] = struct{}{}
	}

	found, err := s.scanner.Scan(ctx, s.root, known)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assets: %w", err)
	}

	merged := current
	if len(found) > 0 {
		merged = make([]domain.AssetRecord, 0, len(current)+len(found))
		merged = append(merged, current...)
		merged = append(merged, found...)

		if err := s.store.SaveAll(ctx, merged); err != nil {
			return nil, err
		}
	}

	s.swap(merged)

	resp := &RefreshResponse{
		Added:    len(found),
		Total:    len(merged),
		New:      cloneRecords(found),
		Duration: time.Since(start),
	}
	s.log.Info("catalog refreshed",
		zap.Int("added", resp.Added),
		zap.Int("total", resp.Total),
		zap.Duration("duration", resp.Duration))

	return resp, nil
}

// Query returns records tagged with any of selected, in catalog order.
// An empty selection returns the whole catalog.
func (s *CatalogService) Query(ctx context.Context, selected []string) ([]domain.AssetRecord, error) {
	resp, err := s.Search(ctx, QueryRequest{Tags: selected})
	if err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// QueryRequest represents a filtered listing
type QueryRequest struct {
	Tags     []string // any-of; empty means no tag filter
	Project  string   // exact project name (optional)
	Untagged bool     // only records without tags
}

// QueryResponse represents the filtered records
type QueryResponse struct {
	Records []domain.AssetRecord
	Total   int
}

// Search applies the tag filter plus the optional project and untagged filters
func (s *CatalogService) Search(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []domain.AssetRecord{}
	for _, pos := range s.index.Select(req.Tags) {
		r := s.records[pos]
		if req.Project != "" && r.Project != req.Project {
			continue
		}
		if req.Untagged && !r.IsUntagged() {
			continue
		}
		results = append(results, r.Clone())
	}

	return &QueryResponse{
		Records: results,
		Total:   len(results),
	}, nil
}

// UpdateTags replaces the tags of one asset with the normalized form of text.
// Returns false without writing when the tag set is unchanged.
func (s *CatalogService) UpdateTags(ctx context.Context, relPath, text string) (bool, error) {
	return s.editTags(ctx, relPath, func(domain.TagSet) domain.TagSet {
		return domain.ParseTags(text)
	})
}

// AddTags adds tokens to an asset's current tags.
// Each token is parsed like tag text, so "a;b" adds two tags.
func (s *CatalogService) AddTags(ctx context.Context, relPath string, tokens []string) (bool, error) {
	return s.editTags(ctx, relPath, func(current domain.TagSet) domain.TagSet {
		return current.Add(tokens...)
	})
}

// RemoveTags removes tokens, parsed like tag text, from an asset's current tags
func (s *CatalogService) RemoveTags(ctx context.Context, relPath string, tokens []string) (bool, error) {
	return s.editTags(ctx, relPath, func(current domain.TagSet) domain.TagSet {
		return current.Remove(tokens...)
	})
}

func (s *CatalogService) editTags(ctx context.Context, relPath string, edit func(domain.TagSet) domain.TagSet) (bool, error) {
	relPath = normalizeRelPath(relPath)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.loadCurrent(ctx)
	if err != nil {
		return false, err
	}

	pos := -1
	for i, r := range current {
		if r.RelativePath == relPath {
			pos = i
			break
		}
	}

	// Outcomes that write nothing still install the fresh load, so the
	// snapshot picks up what other writers saved to the same catalog.
	if pos < 0 {
		s.swap(current)
		return false, fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}

	next := domain.NormalizeTags(edit(current[pos].Tags.Clone()))
	if current[pos].Tags.Equal(next) {
		s.swap(current)
		return false, nil
	}

	updated := cloneRecords(current)
	updated[pos] = updated[pos].WithTags(next)

	if err := s.store.SaveAll(ctx, updated); err != nil {
		return false, err
	}

	s.swap(updated)
	s.log.Info("tags updated",
		zap.String("relative_path", relPath),
		zap.Strings("tags", next))

	return true, nil
}

// Get returns a single record
func (s *CatalogService) Get(ctx context.Context, relPath string) (domain.AssetRecord, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.AssetRecord{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[normalizeRelPath(relPath)]
	if !ok {
		return domain.AssetRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}
	return s.records[pos].Clone(), nil
}

// Records returns the whole catalog in order
func (s *CatalogService) Records(ctx context.Context) ([]domain.AssetRecord, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.records), nil
}

// AllTags returns the sorted distinct tags of the catalog
func (s *CatalogService) AllTags(ctx context.Context) ([]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Tags(), nil
}

// TagCount returns how many assets carry tag
func (s *CatalogService) TagCount(ctx context.Context, tag string) (int, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.index.Count(tag)), nil
}

// Projects returns the sorted distinct project names
func (s *CatalogService) Projects(ctx context.Context) ([]string, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var projects []string
	for _, r := range records {
		if _, ok := seen[r.Project]; !ok {
			seen[r.Project] = struct{}{}
			projects = append(projects, r.Project)
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Root returns the asset root directory
func (s *CatalogService) Root() string {
	return s.root
}

// MatchMode returns the tag comparison mode
func (s *CatalogService) MatchMode() MatchMode {
	return s.mode
}

// StoreLocation returns where the catalog is persisted
func (s *CatalogService) StoreLocation() string {
	return s.store.Location()
}

// AssetPath returns the on-disk path of an asset
func (s *CatalogService) AssetPath(relPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(normalizeRelPath(relPath)))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// loadCurrent reads the store, treating a missing catalog as empty
func (s *CatalogService) loadCurrent(ctx context.Context) ([]domain.AssetRecord, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			s.log.Debug("catalog not found, starting empty", zap.String("store", s.store.Location()))
			return []domain.AssetRecord{}, nil
		}
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return records, nil
}

func (s *CatalogService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Another caller may have loaded while we waited
	s.mu.RLock()
	loaded = s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	records, err := s.loadCurrent(ctx)
	if err != nil {
		return err
	}
	s.swap(records)
	return nil
}

// swap installs a new snapshot. Callers hold writeMu.
func (s *CatalogService) swap(records []domain.AssetRecord) {
	positions := make(map[string]int, len(records))
	for i, r := range records {
		positions[r.RelativePath] = i
	}
	index := BuildTagIndex(records, s.mode)

	s.mu.Lock()
	s.records = records
	s.positions = positions
	s.index = index
	s.loaded = true
	s.mu.Unlock()
}

func cloneRecords(records []domain.AssetRecord) []domain.AssetRecord {
	out := make([]domain.AssetRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func normalizeRelPath(relPath string) string {
	relPath = strings.TrimSpace(strings.ReplaceAll(relPath, "\\", "/"))
	return strings.TrimPrefix(relPath, "./")
}
