package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherRerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.xml")
	if err := os.WriteFile(path, []byte("<r/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	runs := make(chan struct{}, 10)
	reduce := func(ctx context.Context) error {
		runs <- struct{}{}
		return errors.New("reduction errors are logged, not fatal")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(path, 100*time.Millisecond, reduce, mockLogger{})
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitRun(t, runs, "initial run")

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A burst of writes settles into one run.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("<r></r>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	waitRun(t, runs, "run after write")

	select {
	case <-runs:
		t.Errorf("burst of writes triggered more than one run")
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "run.xml")
	w := NewWatcher(path, 0, func(context.Context) error { return nil }, mockLogger{})
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() on a missing directory succeeded")
	}
}

func waitRun(t *testing.T, runs <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
