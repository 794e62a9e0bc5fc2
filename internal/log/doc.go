// Package log provides logging with automatic sanitization of sensitive
// information, built on top of the standard slog package.
//
// # Security Features
//
// The SecureHandler masks sensitive information before it is written:
//   - HTTP headers configured per site (Authorization, Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (bearer tokens, JWTs, keys)
//   - Passwords embedded in URLs
//   - Credential query parameters in URLs (token, signature, api_key)
//
// Even in verbose mode, sensitive values are masked so logs can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetching page",
//	    "url", "https://docs.example.com/guide?token=abc", // token masked
//	    "cookie", "session=abc123",                        // masked
//	)
package log
