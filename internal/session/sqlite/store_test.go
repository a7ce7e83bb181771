package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/MrWong99/hillhouse/internal/session"
	"github.com/MrWong99/hillhouse/internal/session/storetest"
	_ "modernc.org/sqlite"
)

func TestStore_Conformance(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) session.Store {
		s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second migrate: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() {
		_ = sqlDB.Close()
	}()

	var name string
	err = sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'`).Scan(&name)
	if err != nil {
		t.Fatalf("sessions table missing: %v", err)
	}
}

// TestStore_Reopen verifies that documents survive closing and reopening the
// database file.
func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := storetest.Document(t, "durable")
	if err := s.Create(ctx, want); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Load(ctx, "durable")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	storetest.Equal(t, got, want)
}

func TestNanosRoundTrip(t *testing.T) {
	t.Parallel()
	if !fromNanos(toNanos(fromNanos(0))).IsZero() {
		t.Error("zero time did not survive")
	}
	const n = int64(1761940800123456789)
	if got := toNanos(fromNanos(n)); got != n {
		t.Errorf("toNanos(fromNanos(%d)) = %d", n, got)
	}
}
