// Package validation checks untrusted paths, origins, URLs and input before
// they reach the file system, the network or a browser.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// shellChars are rejected in paths and URLs that may end up on a command
// line.
var shellChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}

// CleanPath cleans path and rejects directory traversal. A ".." segment is
// traversal; "a..b" is a name.
func CleanPath(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return "", fmt.Errorf("path contains directory traversal: %s", path)
		}
	}
	return cleanPath, nil
}

// ValidatePath is CleanPath for paths typed by a user, which must also be
// non-empty and free of shell metacharacters.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	cleanPath, err := CleanPath(path)
	if err != nil {
		return "", err
	}
	for _, char := range shellChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("path contains dangerous character: %s", char)
		}
	}
	return cleanPath, nil
}

// ValidateOrigin accepts an http or https origin whose host is host or that
// is listed in allowedOrigins, by full origin or by host.
func ValidateOrigin(origin, host string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}
	if host != "" && originURL.Host == host {
		return nil
	}
	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}
	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateURL checks a URL before it is handed to the system browser.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}
	for _, char := range append(shellChars, "\\", "\n", "\r", " ") {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}
	return nil
}

// SanitizeInput drops NUL and control characters other than tab, newline
// and carriage return.
func SanitizeInput(input string) string {
	var sanitized strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String()
}
