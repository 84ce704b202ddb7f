package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/leakwatch/internal/notify"
	"github.com/nao1215/leakwatch/internal/provider"
)

// Default configuration values. These match the behavior of the hosted
// LeakCheck v2 API and conservative polling habits.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "leakwatch"

	// DefaultBaseURL is the LeakCheck v2 query endpoint.
	DefaultBaseURL = "https://leakcheck.io/api/v2/query"

	// DefaultInterval is the pause between scheduled monitoring runs.
	// Breach indexes update slowly, so a few hours between polls is
	// plenty while staying well inside API quotas.
	DefaultInterval = 6 * time.Hour

	// DefaultServerAddr is the listen address for the admin API and the
	// Prometheus scrape endpoint.
	DefaultServerAddr = ":8080"

	// DefaultConcurrency is the number of queries processed in parallel
	// during a run.
	DefaultConcurrency = 3

	// DefaultQueriesFile is the query registry file name, resolved under
	// the XDG config directory when not set explicitly.
	DefaultQueriesFile = "queries.yaml"
)

// Duration wraps time.Duration so YAML values like "6h" or "90s" decode
// naturally. Plain integers are treated as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ProviderConfig holds the search provider connection settings as they
// appear in the configuration file.
type ProviderConfig struct {
	// BaseURL is the API endpoint. Defaults to DefaultBaseURL.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates requests. Falls back to the LEAKWATCH_API_KEY
	// environment variable when empty.
	APIKey string `yaml:"api_key"`

	// Limit is the page size per request. Zero uses the provider default.
	Limit int `yaml:"limit,omitempty"`

	// MaxRPS caps client-side request rate. Zero uses the provider default.
	MaxRPS int `yaml:"max_rps,omitempty"`

	// MaxRetries bounds consecutive 429 retries. Zero uses the provider default.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// QueryBudget is the total wall-clock budget per query.
	QueryBudget Duration `yaml:"query_budget,omitempty"`

	// RequestTimeout bounds a single HTTP request.
	RequestTimeout Duration `yaml:"request_timeout,omitempty"`
}

// ClientConfig converts the file representation into the provider's
// client configuration.
func (p ProviderConfig) ClientConfig() provider.Config {
	return provider.Config{
		BaseURL:        p.BaseURL,
		APIKey:         p.APIKey,
		Limit:          p.Limit,
		MaxRPS:         p.MaxRPS,
		MaxRetries:     p.MaxRetries,
		QueryBudget:    p.QueryBudget.Std(),
		RequestTimeout: p.RequestTimeout.Std(),
	}
}

// ScheduleConfig controls the periodic run loop of the daemon.
type ScheduleConfig struct {
	// Interval is the pause between runs. Defaults to DefaultInterval.
	Interval Duration `yaml:"interval"`
}

// ServerConfig controls the embedded admin HTTP server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080". Defaults to DefaultServerAddr.
	Addr string `yaml:"addr"`
}

// DatabaseConfig controls where snapshots and leak entries are stored.
type DatabaseConfig struct {
	// Dir is the directory holding the SQLite database. Defaults to the
	// XDG data directory.
	Dir string `yaml:"dir"`
}

// Config holds all configuration options for the leak monitor. It is
// loaded from a YAML file, with a few fields overridable from CLI flags
// and environment variables, and passed through the application via
// dependency injection rather than global state.
type Config struct {
	// Provider configures the search provider client.
	Provider ProviderConfig `yaml:"provider"`

	// Email configures the EmailJS notifier. Leaving the identifiers
	// empty disables notifications.
	Email notify.Config `yaml:"email"`

	// Schedule configures the daemon run loop.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Server configures the admin HTTP server.
	Server ServerConfig `yaml:"server"`

	// Database configures durable storage.
	Database DatabaseConfig `yaml:"database"`

	// QueriesFile is the path of the query registry file. Defaults to
	// queries.yaml under the XDG config directory.
	QueriesFile string `yaml:"queries_file"`

	// Concurrency is the number of queries processed in parallel per run.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Verbose enables debug log output. Set from the CLI, not the file.
	Verbose bool `yaml:"-"`
}

// NewConfig creates a new Config with default values. All fields are set
// to safe, sensible defaults; users override specific values through the
// configuration file or CLI flags.
func NewConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL: DefaultBaseURL,
		},
		Schedule: ScheduleConfig{
			Interval: Duration(DefaultInterval),
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Database: DatabaseConfig{
			Dir: XDGDataDir(),
		},
		QueriesFile: filepath.Join(XDGConfigDir(), DefaultQueriesFile),
		Concurrency: DefaultConcurrency,
	}
}

// XDGDataDir returns the XDG data directory for the monitor.
// On Linux: ~/.local/share/leakwatch
// On macOS: ~/Library/Application Support/leakwatch
// On Windows: %LOCALAPPDATA%\leakwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the monitor.
// On Linux: ~/.config/leakwatch
// On macOS: ~/Library/Application Support/leakwatch
// On Windows: %APPDATA%\leakwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns a specific
// error describing the first invalid field found; fixing one error often
// makes others irrelevant.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Provider.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Schedule.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Database.Dir == "" {
		return ErrMissingDatabaseDir
	}
	return nil
}
