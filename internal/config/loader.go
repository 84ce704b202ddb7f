package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "leakwatch.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads the monitor configuration from a YAML file,
// layered over NewConfig defaults. If the file does not exist, it returns
// ErrConfigNotFound; callers decide whether that is fatal based on whether
// the path was explicitly specified by the user.
//
// Secrets left empty in the file are filled from the environment:
// LEAKWATCH_API_KEY for the provider key and the EMAILJS_* variables for
// the notifier account.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnvFallbacks(cfg)
	return cfg, nil
}

// applyEnvFallbacks fills empty secret fields from the environment so the
// config file never has to contain credentials.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("LEAKWATCH_API_KEY")
	}
	if cfg.Email.ServiceID == "" {
		cfg.Email.ServiceID = os.Getenv("EMAILJS_SERVICE_ID")
	}
	if cfg.Email.TemplateID == "" {
		cfg.Email.TemplateID = os.Getenv("EMAILJS_TEMPLATE_ID")
	}
	if cfg.Email.UserID == "" {
		cfg.Email.UserID = os.Getenv("EMAILJS_USER_ID")
	}
	if cfg.Email.Email == "" {
		cfg.Email.Email = os.Getenv("EMAILJS_EMAIL")
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for leakwatch.yaml in the current directory
// 3. Look for leakwatch.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
