package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func isTestImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".png" || ext == ".jpg"
}

func startWatchLoop(t *testing.T, root string) <-chan struct{} {
	t.Helper()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := addWatchDirs(w, root); err != nil {
		t.Fatalf("addWatchDirs failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = watchLoop(ctx, w, root, 30*time.Millisecond, isTestImage, func() { changes <- struct{}{} }, nil)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return changes
}

func expectChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func expectQuiet(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("expected no change notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchLoop_NewImageInProject(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "ProjectA"), 0755); err != nil {
		t.Fatal(err)
	}
	changes := startWatchLoop(t, root)

	if err := os.WriteFile(filepath.Join(root, "ProjectA", "hero.png"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes)
}

func TestWatchLoop_NewProjectIsWatched(t *testing.T) {
	root := t.TempDir()
	changes := startWatchLoop(t, root)

	project := filepath.Join(root, "ProjectB")
	if err := os.Mkdir(project, 0755); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes)

	if err := os.WriteFile(filepath.Join(project, "cover.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes)
}

func TestWatchLoop_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "ProjectA"), 0755); err != nil {
		t.Fatal(err)
	}
	changes := startWatchLoop(t, root)

	files := []string{
		filepath.Join(root, "ProjectA", ".hidden.png"),
		filepath.Join(root, "ProjectA", "notes.txt"),
		filepath.Join(root, "loose.png"),
	}
	for _, f := range files {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	expectQuiet(t, changes)
}

func TestWatchLoop_TildeImageTriggersRefresh(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "ProjectA"), 0755); err != nil {
		t.Fatal(err)
	}
	changes := startWatchLoop(t, root)

	if err := os.WriteFile(filepath.Join(root, "ProjectA", "~draft.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, changes)
}

func TestWatchLoop_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "ProjectA"), 0755); err != nil {
		t.Fatal(err)
	}
	changes := startWatchLoop(t, root)

	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		if err := os.WriteFile(filepath.Join(root, "ProjectA", name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	expectChange(t, changes)
	expectQuiet(t, changes)
}

func TestIsHiddenName(t *testing.T) {
	tests := map[string]bool{
		".DS_Store":  true,
		".~lock.png": true,
		"~draft.png": false,
		"hero.png":   false,
		"Project.A":  false,
	}
	for name, want := range tests {
		if got := isHiddenName(name); got != want {
			t.Errorf("isHiddenName(%q) = %v, want %v", name, got, want)
		}
	}
}
