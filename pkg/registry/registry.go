// Package registry maps command names to handler functions. The registry is
// built once at startup and read-only afterwards, so dispatch needs no
// locking.
package registry

import (
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/denizumutdereli/nukebridge/pkg/core"
	"github.com/denizumutdereli/nukebridge/pkg/protocol"
)

// HandlerFn handles one command type. Implementations receive the decoded
// argument map and return a complete response; they never panic across the
// dispatch boundary (panics are recovered and converted by Dispatch).
type HandlerFn func(args map[string]any) protocol.Response

// Registry is the command-name → handler mapping.
type Registry struct {
	handlers map[string]HandlerFn
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFn),
	}
}

// Register adds a handler for the given command name. Registering a name
// twice is a startup error, never a silent replacement.
func (r *Registry) Register(name string, h HandlerFn) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("handler for %q must not be nil", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateCommand, name)
	}
	r.handlers[name] = h
	return nil
}

// Commands returns all registered command names, sorted.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Dispatch invokes the handler registered under name. Unknown names produce
// a failure naming the command; handler panics are recovered and converted
// so a fault in one handler never crosses the dispatch boundary.
func (r *Registry) Dispatch(name string, args map[string]any) protocol.Response {
	h, ok := r.handlers[name]
	if !ok {
		return protocol.Failure("Unknown command type: " + name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return safeInvoke(h, args)
}

func safeInvoke(h HandlerFn, args map[string]any) (resp protocol.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = protocol.FailureWithDetail(
				fmt.Sprintf("%v", rec),
				string(debug.Stack()),
			)
		}
	}()
	return h(args)
}
