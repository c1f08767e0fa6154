package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// Canonicalize returns the absolute form of path with every symlink resolved
func Canonicalize(path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(NormalizePath(path))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// RelWithin returns target relative to root when target is root or lies
// below it. Both paths must already be canonical.
func RelWithin(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}
	if strings.ContainsRune(path, 0) {
		return &PathError{Path: path, Message: "path contains a NUL byte"}
	}
	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
