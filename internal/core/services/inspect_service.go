package services

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// AssetIssue is a per-asset problem found while inspecting files
type AssetIssue struct {
	Record domain.AssetRecord
	Err    *domain.AssetUnreadableError
}

// AssetInfo describes a readable asset
type AssetInfo struct {
	Format string
	Width  int
	Height int
	Size   int64
}

// InspectProgress is sent once per probed asset
type InspectProgress struct {
	Current      int
	Total        int
	RelativePath string
	OK           bool
}

// InspectService checks that cataloged assets can still be opened and decoded
type InspectService struct {
	root    string
	workers int
}

// NewInspectService creates an inspector for assets below root
func NewInspectService(root string) *InspectService {
	return &InspectService{
		root:    root,
		workers: runtime.NumCPU(),
	}
}

// SetWorkers sets how many assets are probed in parallel
func (s *InspectService) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
}

// Inspect probes every record. Problems are collected, never returned as a
// batch error; only context cancellation stops the walk early.
func (s *InspectService) Inspect(ctx context.Context, records []domain.AssetRecord) ([]AssetIssue, error) {
	return s.InspectWithProgress(ctx, records, nil)
}

type probeJob struct {
	pos    int
	record domain.AssetRecord
}

type probeResult struct {
	pos    int
	record domain.AssetRecord
	err    *domain.AssetUnreadableError
}

// InspectWithProgress is Inspect with a progress callback. Issues are
// returned in catalog order regardless of which worker found them.
func (s *InspectService) InspectWithProgress(ctx context.Context, records []domain.AssetRecord, progress func(InspectProgress)) ([]AssetIssue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan probeJob, len(records))
	results := make(chan probeResult, len(records))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, jobs, results)
		}()
	}

	for pos, r := range records {
		jobs <- probeJob{pos: pos, record: r}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var found []probeResult
	done := 0
	for res := range results {
		done++
		if progress != nil {
			progress(InspectProgress{
				Current:      done,
				Total:        len(records),
				RelativePath: res.record.RelativePath,
				OK:           res.err == nil,
			})
		}
		if res.err != nil {
			found = append(found, res)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	issues := make([]AssetIssue, len(found))
	for i, res := range found {
		issues[i] = AssetIssue{Record: res.record, Err: res.err}
	}
	return issues, nil
}

func (s *InspectService) worker(ctx context.Context, jobs <-chan probeJob, results chan<- probeResult) {
	for job := range jobs {
		// Drain remaining jobs once cancelled
		if ctx.Err() != nil {
			continue
		}
		_, err := s.Probe(job.record)
		results <- probeResult{pos: job.pos, record: job.record, err: err}
	}
}

// Probe decodes the image header of a single asset
func (s *InspectService) Probe(r domain.AssetRecord) (*AssetInfo, *domain.AssetUnreadableError) {
	path := filepath.Join(s.root, filepath.FromSlash(r.RelativePath))

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.AssetUnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &domain.AssetUnreadableError{Path: path, Err: err}
	}
	if stat.IsDir() {
		return nil, &domain.AssetUnreadableError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, &domain.AssetUnreadableError{Path: path, Err: err}
	}

	return &AssetInfo{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   stat.Size(),
	}, nil
}
