package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports"
	"github.com/kamal-hamza/pictag/internal/logger"
)

// DefaultExtensions is the image allow-list (compared case-insensitively)
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// FSScanner discovers assets in a two-level root/project/file layout
type FSScanner struct {
	extensions map[string]struct{}
	log        *zap.Logger
}

// NewFSScanner creates a scanner accepting the given extensions.
// An empty list falls back to DefaultExtensions.
func NewFSScanner(extensions []string, log *zap.Logger) *FSScanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	return &FSScanner{
		extensions: allowed,
		log:        logger.OrNop(log),
	}
}

var _ ports.Scanner = (*FSScanner)(nil)

// Scan walks the immediate subdirectories of root (projects, lexicographic)
// and their directly contained image files (lexicographic). Deeper
// directories are ignored. Only paths missing from known are returned.
func (s *FSScanner) Scan(ctx context.Context, root string, known map[string]struct{}) ([]domain.AssetRecord, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetRootMissing, root)
		}
		return nil, fmt.Errorf("failed to stat asset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrAssetRootMissing, root)
	}

	// os.ReadDir returns entries sorted by filename
	projects, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset root: %w", err)
	}

	var found []domain.AssetRecord
	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isHidden(project.Name()) || !isDir(root, project) {
			continue
		}

		projectPath := filepath.Join(root, project.Name())
		files, err := os.ReadDir(projectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read project %s: %w", project.Name(), err)
		}

		for _, file := range files {
			if isHidden(file.Name()) || !s.IsAsset(file.Name()) || !isFile(projectPath, file) {
				continue
			}

			relPath := domain.RelativePathFor(project.Name(), file.Name())
			if _, ok := known[relPath]; ok {
				continue
			}

			s.log.Debug("discovered asset", zap.String("relative_path", relPath))
			found = append(found, domain.NewAssetRecord(project.Name(), file.Name()))
		}
	}

	return found, nil
}

// IsAsset reports whether filename has an allowed image extension
func (s *FSScanner) IsAsset(filename string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDir follows symlinks so linked project folders are still scanned
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func isFile(parent string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
