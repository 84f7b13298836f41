package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/logger"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var watchQuiet bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Add new images to the catalog as they appear",
	Long: `Watch the asset root and every project folder, and refresh the catalog
whenever an image is created. New project folders are picked up automatically.

Events are debounced (watch_debounce_ms in the config) so copying a batch of
files results in a single catalog write. Deleting files never removes rows.

Use --quiet to suppress refresh notifications.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Suppress refresh notifications")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(getContext(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := appLibrary.AssetsPath
	if !appLibrary.Exists() {
		fmt.Println(ui.FormatError("Asset root not found: " + root))
		fmt.Println(ui.FormatInfo("Run 'pictag init' or pass --root"))
		return domain.ErrAssetRootMissing
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return fmt.Errorf("failed to watch asset root: %w", err)
	}

	if !watchQuiet {
		fmt.Println(ui.FormatScan("Watching " + root))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	doRefresh := func() {
		resp, err := catalogService.Refresh(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			appLogger.Error("refresh failed", zap.Error(err))
			if !watchQuiet {
				fmt.Println(ui.FormatError("Refresh failed: " + err.Error()))
			}
			return
		}
		if resp.Added > 0 && !watchQuiet {
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("Added %d new images (%d total)", resp.Added, resp.Total)))
		}
	}

	// Catch up on anything added while nobody was watching
	doRefresh()

	debounce := time.Duration(appConfig.WatchDebounceMS) * time.Millisecond
	err = watchLoop(ctx, watcher, root, debounce, assetScanner.IsAsset, doRefresh, appLogger)

	if !watchQuiet {
		fmt.Println()
		fmt.Println(ui.FormatMuted("Watcher stopped"))
	}
	return err
}

// addWatchDirs watches root and each visible project folder directly below it
func addWatchDirs(w *fsnotify.Watcher, root string) error {
	if err := w.Add(root); err != nil {
		return err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if isHiddenName(e.Name()) {
			continue
		}
		p := filepath.Join(root, e.Name())
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if err := w.Add(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// watchLoop calls onChange once events stop arriving for the debounce window.
// It returns when ctx is done or the watcher is closed.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, root string, debounce time.Duration, isAsset func(string) bool, onChange func(), log *zap.Logger) error {
	log = logger.OrNop(log)
	root = filepath.Clean(root)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			name := filepath.Base(event.Name)
			if isHiddenName(name) {
				continue
			}

			parent := filepath.Dir(filepath.Clean(event.Name))
			if parent == root {
				// Only directories matter at the top level; loose files are not assets
				info, err := os.Stat(event.Name)
				if err != nil || !info.IsDir() || !event.Has(fsnotify.Create) {
					continue
				}
				if err := w.Add(event.Name); err != nil {
					log.Warn("cannot watch project", zap.String("path", event.Name), zap.Error(err))
					continue
				}
				log.Debug("watching new project", zap.String("project", name))
			} else if !isAsset(name) {
				continue
			}

			log.Debug("change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return nil
		}
	}
}

// isHiddenName uses the same rule as the scanner so every watched event can lead to a new row
func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".")
}
