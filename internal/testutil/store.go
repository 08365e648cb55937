package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/treemngr/internal/store"
)

// OpenStore opens a file-backed SQLite store in a temp directory that is
// closed and removed when the test ends. It returns the store and its path,
// so tests can reopen the same file (for example through the CLI).
func OpenStore(t testing.TB) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open(%q) failed: %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}
