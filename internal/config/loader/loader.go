// Package loader reads raw configuration maps for blockstorm.
//
// Loaders return nested map[string]any trees keyed by section. The config
// package merges the trees from defaults, the TOML file and the environment
// in that order and decodes the result into typed sections.
package loader

import (
	"io/fs"
	"os"
)

// Loader produces a configuration tree.
type Loader interface {
	// Load reads the source. A missing source yields nil, nil.
	Load() (map[string]any, error)
}

// FileSystem is the subset of file access the loaders need, so tests can
// substitute fstest.MapFS.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FS adapts an fs.FS, such as fstest.MapFS.
type FS struct {
	fs.FS
}

// ReadFile reads the entire file at path.
func (f FS) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(f.FS, path)
}

// DeepMerge merges src into dst and returns dst. Nested maps merge
// recursively; any other value in src replaces the one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dm, sm)
			continue
		}
		if srcIsMap {
			dst[key] = Clone(sm)
			continue
		}
		dst[key] = sv
	}
	return dst
}

// Clone deep copies a configuration tree.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, v := range src {
		dst[key] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Lookup walks a dot separated path through tree.
func Lookup(tree map[string]any, path string) (any, bool) {
	var cur any = tree
	for _, part := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value at a dot separated path, creating intermediate maps.
func Set(tree map[string]any, path string, value any) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return
	}
	cur := tree
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
