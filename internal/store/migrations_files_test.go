package store

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func TestMigrationFilesAreWellFormed(t *testing.T) {
	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d{4})_[a-z0-9_]+\.up\.sql$`)
	seen := map[string]string{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			t.Errorf("migration %q does not match NNNN_name.up.sql", name)
			continue
		}
		version := match[1]
		if prev, ok := seen[version]; ok {
			t.Errorf("duplicate migration version %s: %s and %s", version, prev, name)
		}
		seen[version] = name
	}

	if len(seen) == 0 {
		t.Fatal("no migrations discovered")
	}
}
