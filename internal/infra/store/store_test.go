package store_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/edumarques81/songdle/internal/infra/store"
)

func openSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	db := store.NewSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err := db.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// exerciseKV runs the shared contract against any KV implementation.
func exerciseKV(t *testing.T, kv store.KV) {
	t.Helper()

	if _, err := kv.Get("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := kv.Set("a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kv.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"x":1}`)) {
		t.Errorf("Get(a) = %s", got)
	}

	if err := kv.Set("a", []byte("true")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got, _ := kv.Get("a"); string(got) != "true" {
		t.Errorf("overwrite not applied, got %s", got)
	}

	if err := kv.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := kv.Get("a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("key should be gone after Remove, err = %v", err)
	}

	if err := kv.Remove("never-set"); err != nil {
		t.Errorf("Remove of a missing key should succeed, got %v", err)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, store.NewMemory())
}

func TestSQLiteKV(t *testing.T) {
	exerciseKV(t, openSQLite(t))
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := store.NewMemory()
	m.Set("k", []byte("abc"))

	v, _ := m.Get("k")
	v[0] = 'z'

	if again, _ := m.Get("k"); string(again) != "abc" {
		t.Errorf("stored value was mutated: %s", again)
	}
}

func TestSQLiteSchemaVersion(t *testing.T) {
	db := openSQLite(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != store.CurrentSchemaVersion {
		t.Errorf("Expected schema version %q, got %q", store.CurrentSchemaVersion, v)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songdle.db")

	db := store.NewSQLite(path)
	if err := db.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.Set(store.KeyStats, []byte(`{"gamesPlayed":3}`))
	db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("Database file should exist after Open()")
	}

	db = store.NewSQLite(path)
	if err := db.Open(); err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	got, err := db.Get(store.KeyStats)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"gamesPlayed":3}` {
		t.Errorf("unexpected value after reopen: %s", got)
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("Expected 1 key, got %d", n)
	}
}

func TestSQLiteClosed(t *testing.T) {
	db := store.NewSQLite(filepath.Join(t.TempDir(), "x.db"))
	if _, err := db.Get("k"); err == nil {
		t.Error("Get on an unopened database should fail")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close on an unopened database should be a no-op, got %v", err)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	m := store.NewMemory()
	alice := store.Namespace(m, "alice")
	bob := store.Namespace(m, "bob")

	alice.Set(store.KeyGameState, []byte("a"))
	bob.Set(store.KeyGameState, []byte("b"))

	if v, _ := alice.Get(store.KeyGameState); string(v) != "a" {
		t.Errorf("alice sees %s", v)
	}
	if v, _ := m.Get("bob:" + store.KeyGameState); string(v) != "b" {
		t.Errorf("raw key for bob holds %s", v)
	}

	alice.Remove(store.KeyGameState)
	if _, err := bob.Get(store.KeyGameState); err != nil {
		t.Errorf("removing alice's key must not touch bob's: %v", err)
	}
	if m.Keys() != 1 {
		t.Errorf("Expected 1 key left, got %d", m.Keys())
	}
}
