// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masked previews for breach row contact fields (emails, phones, usernames)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Leaked credential fields carried in provider result rows
//   - Session identifiers and authentication tokens
//
// A leak monitor passes breached credentials through its pipeline, so even
// in verbose mode sensitive values are masked to prevent accidental
// exposure in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("row received",
//	    "email", "jane@example.org",  // Logged as "ja***@e***"
//	    "source", "Collection #1",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
