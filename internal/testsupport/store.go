package testsupport

import (
	"testing"

	"tubeqa/internal/cachestore"
	"tubeqa/internal/config"
	"tubeqa/internal/logging"
)

// MustOpenStore opens a cachestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cachestore.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := cachestore.Open(cfg.DatabasePath(), logging.NewNop())
	if err != nil {
		t.Fatalf("cachestore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
