package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/blockstorm/internal/block"
)

// Registry holds the available tools keyed by name.
// It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]block.Tool
	defaultName string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]block.Tool)}
}

// NewBuiltinRegistry creates a registry holding the built-in tools with
// paragraph as the default.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, t := range Builtins() {
		// Builtin names are distinct.
		_ = r.Register(t)
	}
	r.defaultName = ParagraphName
	return r
}

// Register adds t. The first registered tool becomes the default.
func (r *Registry) Register(t block.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// Replace registers t, overwriting any tool with the same name.
func (r *Registry) Replace(t block.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	if r.defaultName == "" {
		r.defaultName = t.Name()
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (block.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Default returns the default tool.
func (r *Registry) Default() (block.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[r.defaultName]
	if !ok {
		return nil, ErrNoDefault
	}
	return t, nil
}

// DefaultName returns the name of the default tool.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// SetDefault designates name as the default tool.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	r.defaultName = name
	return nil
}

// IsDefault reports whether name is the default tool.
func (r *Registry) IsDefault(name string) bool {
	return r.DefaultName() == name
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
