// Package validation provides path safety checks and document-level
// consistency checks for generated guides: directive resolution, duplicate
// snippet names, and intra-document link validation.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidateRelativePath validates a path from config or a directive. Paths
// must stay inside the project tree, so absolute paths and traversal are
// rejected.
func ValidateRelativePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("path contains NUL byte")
	}

	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute path not allowed: %s", path)
	}

	// Clean first so "a/b/../c" is allowed but escapes are not.
	cleanPath := filepath.Clean(path)
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	return nil
}

// ResolveWithin joins path onto root and verifies the result stays inside
// root. It returns the cleaned absolute path.
func ResolveWithin(root, path string) (string, error) {
	if err := ValidateRelativePath(path); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %q: %w", root, err)
	}

	resolved := filepath.Clean(filepath.Join(absRoot, path))
	if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes root %q", path, root)
	}

	return resolved, nil
}

// ValidateURL checks an external link target. Only http and https schemes
// are accepted; scheme-relative and javascript: URLs are rejected.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		// ok
	case "":
		return fmt.Errorf("URL missing scheme: %s", rawURL)
	default:
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL missing host: %s", rawURL)
	}

	return nil
}
