package reload

import "strings"

// Suffixes classifies watched files by extension and maps compiled
// artifacts back to the sources that produced them. The zero value matches
// nothing.
type Suffixes struct {
	// Source lists extensions (leading dot included) of files that count
	// as source code, e.g. ".go".
	Source []string

	// Compiled maps a compiled-artifact extension to the source extension
	// it derives from, e.g. ".pyc" to ".py". Changes to an artifact are
	// reported against the source path.
	Compiled map[string]string
}

// IsSource reports whether path carries one of the source extensions.
func (s Suffixes) IsSource(path string) bool {
	for _, ext := range s.Source {
		if ext != "" && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsCompiled reports whether path carries one of the compiled-artifact
// extensions.
func (s Suffixes) IsCompiled(path string) bool {
	for ext := range s.Compiled {
		if ext != "" && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Matches reports whether path is either a source file or a compiled
// artifact.
func (s Suffixes) Matches(path string) bool {
	return s.IsSource(path) || s.IsCompiled(path)
}

// Normalize rewrites a compiled-artifact path to its source counterpart.
// Any other path is returned unchanged.
func (s Suffixes) Normalize(path string) string {
	for art, src := range s.Compiled {
		if art != "" && strings.HasSuffix(path, art) {
			return strings.TrimSuffix(path, art) + src
		}
	}
	return path
}
