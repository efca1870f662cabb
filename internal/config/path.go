package config

import (
	"os"
	"path/filepath"
	"strings"
)

// MemoryDatabase is the SQLite path for a throwaway in-memory store.
const MemoryDatabase = ":memory:"

// ExpandPath resolves a leading ~ and $VAR references in a configured path.
// MemoryDatabase is returned unchanged.
func ExpandPath(path string) string {
	if path == "" || path == MemoryDatabase {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
