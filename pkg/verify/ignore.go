package verify

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreSet holds the paths and glob patterns excluded from verification.
// Entries are relative to a root, so ignoring a path under one root also
// ignores the mirrored path under the other.
type IgnoreSet struct {
	paths    map[string]struct{}
	patterns []string
}

// NewIgnoreSet creates an empty set
func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{paths: make(map[string]struct{})}
}

// AddPath ignores one root-relative path
func (s *IgnoreSet) AddPath(rel string) {
	s.paths[normalize(rel)] = struct{}{}
}

// AddPattern adds a doublestar glob. Patterns without a slash match any
// entry name; patterns with a slash match the root-relative path. A
// trailing slash is accepted and ignored.
func (s *IgnoreSet) AddPattern(pattern string) error {
	p := strings.TrimSuffix(filepath.ToSlash(pattern), "/")
	if p == "" {
		return fmt.Errorf("empty exclude pattern")
	}
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid exclude pattern: %s", pattern)
	}
	s.patterns = append(s.patterns, p)
	return nil
}

// Contains reports whether a root-relative path is ignored. A nil set ignores nothing.
func (s *IgnoreSet) Contains(rel string) bool {
	if s == nil {
		return false
	}

	key := normalize(rel)
	if _, ok := s.paths[key]; ok {
		return true
	}
	if key == "" {
		return false
	}

	for _, pattern := range s.patterns {
		subject := key
		if !strings.Contains(pattern, "/") {
			subject = path.Base(key)
		}
		if matched, _ := doublestar.Match(pattern, subject); matched {
			return true
		}
	}
	return false
}

// Len returns the number of ignored paths and patterns
func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.paths) + len(s.patterns)
}

func normalize(rel string) string {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." {
		return ""
	}
	return rel
}
