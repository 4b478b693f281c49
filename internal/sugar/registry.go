// Package sugar implements PiQL's sugar registry: the extensible map of
// user-registered directive (`@name(args)`) and column-method (`$col.name`)
// handlers consulted by internal/lang's transform pass.
package sugar

import (
	"sync"

	"github.com/JoeHowarth/piql/internal/lang"
)

// Registry holds directive and column-method handlers, plus the built-ins
// registered by NewRegistry. It implements lang.Registry.
type Registry struct {
	mu         sync.RWMutex
	directives map[string]lang.DirectiveHandler
	colMethods map[string]lang.ColMethodHandler
}

// NewRegistry returns a registry pre-populated with the built-in
// column-method macros ($col.delta, $col.delta(n), $col.pct(n)).
func NewRegistry() *Registry {
	r := &Registry{
		directives: make(map[string]lang.DirectiveHandler),
		colMethods: make(map[string]lang.ColMethodHandler),
	}
	registerBuiltins(r)
	return r
}

// RegisterDirective installs a handler for `@name(args)`.
func (r *Registry) RegisterDirective(name string, handler lang.DirectiveHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directives[name] = handler
}

// RegisterColMethod installs a handler for `$col.name`.
func (r *Registry) RegisterColMethod(name string, handler lang.ColMethodHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colMethods[name] = handler
}

// Directive looks up a directive handler by name.
func (r *Registry) Directive(name string) (lang.DirectiveHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.directives[name]
	return h, ok
}

// ColMethod looks up a column-method handler by name.
func (r *Registry) ColMethod(name string) (lang.ColMethodHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.colMethods[name]
	return h, ok
}
