package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/leakwatch/internal/model"
)

// TestLoadQueries tests loading and validating the query registry file.
func TestLoadQueries(t *testing.T) {
	t.Parallel()

	t.Run("loads entries with optional type", func(t *testing.T) {
		t.Parallel()

		content := `
queries:
  - q: acme.com
    type: domain
  - q: jdoe@acme.com
    type: email
  - q: acme internal
`
		path := filepath.Join(t.TempDir(), "queries.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write queries: %v", err)
		}

		queries, err := LoadQueries(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(queries) != 3 {
			t.Fatalf("got %d queries, want 3", len(queries))
		}
		if queries[0].Type != model.QueryTypeDomain {
			t.Errorf("first type = %q", queries[0].Type)
		}
		if queries[2].Key() != "auto:acme internal" {
			t.Errorf("untyped key = %q", queries[2].Key())
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadQueries(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("empty registry is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "queries.yaml")
		if err := os.WriteFile(path, []byte("queries: []\n"), 0o600); err != nil {
			t.Fatalf("failed to write queries: %v", err)
		}
		_, err := LoadQueries(path)
		if !errors.Is(err, ErrNoQueries) {
			t.Errorf("expected ErrNoQueries, got %v", err)
		}
	})
}

// TestValidateQueries tests entry validation and duplicate detection.
func TestValidateQueries(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid entry", func(t *testing.T) {
		t.Parallel()

		err := ValidateQueries([]model.Query{{Value: "acme.com"}, {Value: " "}})
		if !errors.Is(err, model.ErrEmptyQueryValue) {
			t.Errorf("expected ErrEmptyQueryValue, got %v", err)
		}
	})

	t.Run("rejects duplicates by normalized key", func(t *testing.T) {
		t.Parallel()

		err := ValidateQueries([]model.Query{
			{Value: "acme.com", Type: model.QueryTypeDomain},
			{Value: " ACME.COM ", Type: model.QueryTypeDomain},
		})
		if !errors.Is(err, ErrDuplicateQuery) {
			t.Errorf("expected ErrDuplicateQuery, got %v", err)
		}
	})

	t.Run("same value under different types is allowed", func(t *testing.T) {
		t.Parallel()

		err := ValidateQueries([]model.Query{
			{Value: "acme.com", Type: model.QueryTypeDomain},
			{Value: "acme.com", Type: model.QueryTypeKeyword},
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestSaveQueries tests the atomic write and round trip.
func TestSaveQueries(t *testing.T) {
	t.Parallel()

	t.Run("round trips through the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "queries.yaml")
		queries := []model.Query{
			{Value: "acme.com", Type: model.QueryTypeDomain},
			{Value: "jdoe@acme.com", Type: model.QueryTypeEmail},
		}
		if err := SaveQueries(path, queries); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		loaded, err := LoadQueries(path)
		if err != nil {
			t.Fatalf("failed to reload queries: %v", err)
		}
		if len(loaded) != 2 || loaded[0].Value != "acme.com" || loaded[1].Type != model.QueryTypeEmail {
			t.Errorf("unexpected queries: %+v", loaded)
		}
	})

	t.Run("invalid registry is never written", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "queries.yaml")
		if err := SaveQueries(path, nil); !errors.Is(err, ErrNoQueries) {
			t.Fatalf("expected ErrNoQueries, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("file must not exist after a rejected save")
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "queries.yaml")
		if err := SaveQueries(path, []model.Query{{Value: "acme.com"}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "queries.yaml" {
			t.Errorf("unexpected directory contents: %v", entries)
		}
	})
}
