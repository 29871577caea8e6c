package schema

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

const watchDocOne = `
fields:
  name: {label: Name, type: char}
`

const watchDocTwo = `
fields:
  name: {label: Name, type: char}
  age: {label: Age, type: integer}
`

// awaitFields rewrites the file until a registry with the wanted field
// count arrives. Rewriting in a loop sidesteps the race between the
// first write and the watcher registration.
func awaitFields(t *testing.T, path, doc string, updates <-chan *Registry, want int) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		select {
		case r := <-updates:
			if r.Len() == want {
				return
			}
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatalf("no registry with %d fields within timeout", want)
		}
	}
}

func TestWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, []byte(watchDocOne), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	updates := make(chan *Registry, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- WatchFile(ctx, path, testLogger(), func(r *Registry) {
			updates <- r
		})
	}()

	// The initial registry arrives before any file change.
	select {
	case r := <-updates:
		if r.Len() != 1 {
			t.Fatalf("expected 1 field initially, got %d", r.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no initial registry")
	}

	awaitFields(t, path, watchDocTwo, updates, 2)

	// A broken rewrite is skipped; the next good one comes through.
	if err := os.WriteFile(path, []byte("fields: [broken"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	awaitFields(t, path, watchDocOne, updates, 1)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	err := WatchFile(context.Background(), path, testLogger(), func(*Registry) {
		t.Error("apply must not run when the initial load fails")
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}
