// Package config provides configuration structures and utilities for the
// leak monitor. It defines the main configuration options for the search
// provider, notification delivery, scheduling, and storage, plus the
// query registry file that lists the tracked entities.
package config
