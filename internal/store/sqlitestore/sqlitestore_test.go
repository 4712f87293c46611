package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id, err := s.Add(ctx, model.Todo{Text: "buy milk", CreatedAt: 7})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Text != "buy milk" || got.CreatedAt != 7 {
		t.Fatalf("unexpected item after reopen: %+v", got)
	}
	if filepath.Base(s2.Path()) != DataFileName {
		t.Fatalf("unexpected path %q", s2.Path())
	}
}

func TestSQLiteStore_UsesWAL(t *testing.T) {
	s := openTemp(t)
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", mode)
	}
}

func TestSQLiteStore_ClosedReportsStorageError(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.Close()

	_, err = s.Add(context.Background(), model.Todo{Text: "x", CreatedAt: 1})
	if !store.IsStorage(err) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if _, err := s.List(context.Background()); !store.IsStorage(err) {
		t.Fatalf("expected StorageError from list, got %v", err)
	}
}
