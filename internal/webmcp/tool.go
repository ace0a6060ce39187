// Package webmcp exposes storefront actions as callable tools for an
// external agent. Tools are only registered when the surrounding runtime
// provides a Host capability; without one the storefront behaves exactly
// as if the package did not exist.
package webmcp

import "context"

// Params are the decoded arguments of a tool call.
type Params map[string]any

// String returns the named string argument, or "" when absent or not a string.
func (p Params) String(name string) string {
	v, _ := p[name].(string)
	return v
}

// Int returns the named numeric argument. JSON numbers decode as float64,
// so both representations are accepted.
func (p Params) Int(name string) (int, bool) {
	switch v := p[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// ToolError is a machine-readable tool failure.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the discriminated outcome of a tool call: either Data/Meta
// with OK set, or Error.
type Result struct {
	OK    bool           `json:"ok"`
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ToolError     `json:"error,omitempty"`
}

func Ok(data any) Result {
	return Result{OK: true, Data: data}
}

func OkMeta(data any, meta map[string]any) Result {
	return Result{OK: true, Data: data, Meta: meta}
}

func Fail(code, message string) Result {
	return Result{Error: &ToolError{Code: code, Message: message}}
}

// Handler executes one tool call.
type Handler func(ctx context.Context, params Params) Result

// Tool is one agent-callable action.
type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

// Host is the capability through which tools are surfaced to the agent
// runtime. It is injected by the embedding environment; a nil Host is a
// normal condition meaning no agent runtime is present.
type Host interface {
	RegisterTool(tool Tool) error
}
