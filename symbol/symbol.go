// Package symbol maps symbol paths to registered Go objects, serving the
// $symbol, $call, and $model directives.
//
// A symbol path is a dotted name such as "models.resnet". Paths written as
// "some/file.py:name" keep working for configurations authored against a
// dynamic runtime: the file qualifier is ignored and the bare name is
// looked up instead.
package symbol

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// Func adapts a plain function to the callable and builder shapes expected
// behind $call and $model.
type Func func(args map[string]any) (any, error)

func (f Func) Call(args map[string]any) (any, error)  { return f(args) }
func (f Func) Build(args map[string]any) (any, error) { return f(args) }

// Registry holds named symbols. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]any{}}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that package-level
// [Register] feeds.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register binds name to value in the default registry.
func Register(name string, value any) { defaultRegistry.Register(name, value) }

// Register binds name to value, replacing any previous binding.
func (r *Registry) Register(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = value
}

// Names lists the registered symbol paths in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Reset removes every binding.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = map[string]any{}
}

// Resolve looks up the object behind a symbol path. The cwd argument is
// accepted for interface compatibility with file-qualified specs and is
// otherwise unused.
func (r *Registry) Resolve(spec, cwd string) (any, error) {
	name := spec
	if i := strings.LastIndexByte(spec, ':'); i >= 0 {
		name = spec[i+1:]
	}

	r.mu.RLock()
	value, ok := r.entries[name]
	r.mu.RUnlock()

	if ok {
		return value, nil
	}

	if hint := r.closest(name); hint != "" {
		return nil, fmt.Errorf("symbol %q is not registered, did you mean %q", spec, hint)
	}

	return nil, fmt.Errorf("symbol %q is not registered", spec)
}

func (r *Registry) closest(name string) string {
	matches := fuzzy.Find(name, r.Names())
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}
