package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestNewConfig tests the default configuration values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.Provider.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Provider.BaseURL, DefaultBaseURL)
	}
	if cfg.Schedule.Interval.Std() != DefaultInterval {
		t.Errorf("Interval = %v, want %v", cfg.Schedule.Interval.Std(), DefaultInterval)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("Addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.Database.Dir == "" {
		t.Error("expected a default database directory")
	}
	if filepath.Base(cfg.QueriesFile) != DefaultQueriesFile {
		t.Errorf("QueriesFile = %q", cfg.QueriesFile)
	}
}

// TestDurationYAML tests decoding of both duration encodings.
func TestDurationYAML(t *testing.T) {
	t.Parallel()

	t.Run("string form", func(t *testing.T) {
		t.Parallel()

		var d Duration
		if err := yaml.Unmarshal([]byte(`"6h"`), &d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Std() != 6*time.Hour {
			t.Errorf("duration = %v, want 6h", d.Std())
		}
	})

	t.Run("integer form means seconds", func(t *testing.T) {
		t.Parallel()

		var d Duration
		if err := yaml.Unmarshal([]byte(`90`), &d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Std() != 90*time.Second {
			t.Errorf("duration = %v, want 90s", d.Std())
		}
	})

	t.Run("invalid string", func(t *testing.T) {
		t.Parallel()

		var d Duration
		if err := yaml.Unmarshal([]byte(`"six hours"`), &d); err == nil {
			t.Error("expected error for invalid duration string")
		}
	})

	t.Run("round trips through marshal", func(t *testing.T) {
		t.Parallel()

		data, err := yaml.Marshal(Duration(90 * time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var d Duration
		if err := yaml.Unmarshal(data, &d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Std() != 90*time.Second {
			t.Errorf("duration = %v, want 90s", d.Std())
		}
	})
}

// TestValidate tests configuration validation errors.
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Provider.APIKey = "key"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "missing base URL", mutate: func(c *Config) { c.Provider.BaseURL = "" }, want: ErrMissingBaseURL},
		{name: "missing API key", mutate: func(c *Config) { c.Provider.APIKey = "" }, want: ErrMissingAPIKey},
		{name: "zero interval", mutate: func(c *Config) { c.Schedule.Interval = 0 }, want: ErrInvalidInterval},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "missing database dir", mutate: func(c *Config) { c.Database.Dir = "" }, want: ErrMissingDatabaseDir},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

// TestLoadConfigFile tests file loading layered over defaults.
func TestLoadConfigFile(t *testing.T) {
	content := `
provider:
  api_key: file-key
  max_rps: 5
schedule:
  interval: 2h
email:
  service_id: svc
  template_id: tpl
  user_id: user
  email: ops@acme.com
`

	t.Run("overrides defaults and keeps the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Provider.APIKey != "file-key" {
			t.Errorf("APIKey = %q", cfg.Provider.APIKey)
		}
		if cfg.Provider.MaxRPS != 5 {
			t.Errorf("MaxRPS = %d", cfg.Provider.MaxRPS)
		}
		if cfg.Provider.BaseURL != DefaultBaseURL {
			t.Errorf("BaseURL = %q, want default preserved", cfg.Provider.BaseURL)
		}
		if cfg.Schedule.Interval.Std() != 2*time.Hour {
			t.Errorf("Interval = %v", cfg.Schedule.Interval.Std())
		}
		if !cfg.Email.Enabled() {
			t.Error("expected email to be enabled")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(":\nnot yaml"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})

	t.Run("API key falls back to environment", func(t *testing.T) {
		t.Setenv("LEAKWATCH_API_KEY", "env-key")

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("provider: {}\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Provider.APIKey != "env-key" {
			t.Errorf("APIKey = %q, want env fallback", cfg.Provider.APIKey)
		}
	})

	t.Run("email account falls back to environment", func(t *testing.T) {
		t.Setenv("EMAILJS_SERVICE_ID", "env-svc")
		t.Setenv("EMAILJS_TEMPLATE_ID", "env-tpl")
		t.Setenv("EMAILJS_USER_ID", "env-user")
		t.Setenv("EMAILJS_EMAIL", "env@acme.com")

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("email: {}\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cfg, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Email.Enabled() || cfg.Email.Email != "env@acme.com" {
			t.Errorf("email config = %+v", cfg.Email)
		}
	})
}

// TestFindConfigFile tests the config file search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("FindConfigFile() = %q, want empty", got)
		}
	})
}

// TestProviderClientConfig tests the file-to-client config mapping.
func TestProviderClientConfig(t *testing.T) {
	t.Parallel()

	p := ProviderConfig{
		BaseURL:        "https://example.com/api",
		APIKey:         "key",
		Limit:          500,
		MaxRPS:         2,
		MaxRetries:     4,
		QueryBudget:    Duration(time.Minute),
		RequestTimeout: Duration(10 * time.Second),
	}
	got := p.ClientConfig()
	if got.BaseURL != p.BaseURL || got.APIKey != p.APIKey {
		t.Errorf("connection fields not mapped: %+v", got)
	}
	if got.Limit != 500 || got.MaxRPS != 2 || got.MaxRetries != 4 {
		t.Errorf("tuning fields not mapped: %+v", got)
	}
	if got.QueryBudget != time.Minute || got.RequestTimeout != 10*time.Second {
		t.Errorf("durations not mapped: %+v", got)
	}
}
