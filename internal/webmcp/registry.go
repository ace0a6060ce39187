package webmcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the storefront's tool set and surfaces it to a Host.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With("component", "webmcp"),
		tools:  make(map[string]Tool),
	}
}

// Add records a tool in the registry. Later additions with the same name
// replace earlier ones.
func (r *Registry) Add(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range tools {
		r.tools[tool.Name] = tool
	}
}

// Attach registers every tool with the host. A nil host disables tool
// registration without error; the storefront works the same either way.
func (r *Registry) Attach(ctx context.Context, host Host) error {
	if host == nil {
		r.logger.InfoContext(ctx, "No tool host present, skipping tool registration")
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, tool := range r.tools {
		if err := host.RegisterTool(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", name, err)
		}
		r.logger.DebugContext(ctx, "Tool registered", "tool", name)
	}
	return nil
}

// Call invokes a registered tool by name.
func (r *Registry) Call(ctx context.Context, name string, params Params) (Result, bool) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	return tool.Handler(ctx, params), true
}

// Names lists the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
