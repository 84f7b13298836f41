package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// MockCatalogStore is an in-memory CatalogStore for testing
type MockCatalogStore struct {
	mu         sync.Mutex
	records    []domain.AssetRecord
	exists     bool
	saveCalls  int
	loadCalls  int
	shouldFail bool
	failError  error
}

// NewMockCatalogStore creates a store whose backing resource does not exist yet
func NewMockCatalogStore() *MockCatalogStore {
	return &MockCatalogStore{}
}

// NewMockCatalogStoreWith creates a store pre-populated with records
func NewMockCatalogStoreWith(records ...domain.AssetRecord) *MockCatalogStore {
	m := &MockCatalogStore{exists: true}
	m.records = cloneAll(records)
	return m
}

func (m *MockCatalogStore) Load(ctx context.Context) ([]domain.AssetRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCalls++
	if !m.exists {
		return nil, domain.ErrStoreUnavailable
	}
	return cloneAll(m.records), nil
}

func (m *MockCatalogStore) SaveAll(ctx context.Context, records []domain.AssetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCalls++
	if m.shouldFail {
		if m.failError != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistFailure, m.failError)
		}
		return fmt.Errorf("%w: mock failure", domain.ErrPersistFailure)
	}

	m.records = cloneAll(records)
	m.exists = true
	return nil
}

func (m *MockCatalogStore) Location() string {
	return "mock://catalog"
}

// SetShouldFail makes every subsequent SaveAll fail
func (m *MockCatalogStore) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

// SaveCalls returns the number of SaveAll invocations, failed ones included
func (m *MockCatalogStore) SaveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

// LoadCalls returns the number of Load invocations
func (m *MockCatalogStore) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// Records returns a copy of what is currently persisted
func (m *MockCatalogStore) Records() []domain.AssetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.records)
}

// --- MockScanner ---

// MockScanner returns a fixed list of on-disk relative paths filtered by known
type MockScanner struct {
	mu    sync.Mutex
	disk  []domain.AssetRecord
	calls int
	err   error
}

// NewMockScanner creates a scanner that "sees" the given project/filename pairs
func NewMockScanner(paths ...[2]string) *MockScanner {
	s := &MockScanner{}
	for _, p := range paths {
		s.disk = append(s.disk, domain.NewAssetRecord(p[0], p[1]))
	}
	return s
}

func (s *MockScanner) Scan(ctx context.Context, root string, known map[string]struct{}) ([]domain.AssetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	var found []domain.AssetRecord
	for _, r := range s.disk {
		if _, ok := known[r.RelativePath]; ok {
			continue
		}
		found = append(found, r.Clone())
	}
	return found, nil
}

// AddFile simulates a new file appearing on disk
func (s *MockScanner) AddFile(project, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disk = append(s.disk, domain.NewAssetRecord(project, filename))
}

// SetError makes every subsequent Scan fail
func (s *MockScanner) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls returns the number of Scan invocations
func (s *MockScanner) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func cloneAll(records []domain.AssetRecord) []domain.AssetRecord {
	out := make([]domain.AssetRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
