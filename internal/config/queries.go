package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/leakwatch/internal/model"
)

// QueryFile is the on-disk shape of the query registry.
type QueryFile struct {
	// Queries lists the tracked entities.
	Queries []model.Query `yaml:"queries"`
}

// LoadQueries reads and validates the query registry file. Every entry
// must carry a non-empty value and a known type, and no two entries may
// normalize to the same key.
func LoadQueries(path string) ([]model.Query, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided registry path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse queries file: %w", err)
	}
	if err := ValidateQueries(qf.Queries); err != nil {
		return nil, err
	}
	return qf.Queries, nil
}

// ValidateQueries checks every entry and rejects duplicates by query key.
func ValidateQueries(queries []model.Query) error {
	if len(queries) == 0 {
		return ErrNoQueries
	}
	seen := make(map[string]bool, len(queries))
	for i, query := range queries {
		if err := query.Validate(); err != nil {
			return fmt.Errorf("query %d (%q): %w", i, query.Value, err)
		}
		key := query.Key()
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateQuery, key)
		}
		seen[key] = true
	}
	return nil
}

// SaveQueries validates and writes the query registry atomically, using a
// temp file in the same directory renamed over the target. Readers never
// observe a half-written registry.
func SaveQueries(path string, queries []model.Query) error {
	if err := ValidateQueries(queries); err != nil {
		return err
	}

	data, err := yaml.Marshal(QueryFile{Queries: queries})
	if err != nil {
		return fmt.Errorf("failed to marshal queries: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create queries directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".queries-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp queries file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write queries file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close queries file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace queries file: %w", err)
	}
	return nil
}
