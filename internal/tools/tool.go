package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rahul/finmate/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// Argument describes the single string input a tool accepts.
type Argument struct {
	Name        string
	Description string
}

// Tool defines the interface for all agent capabilities. Every tool takes one
// string and produces a Result; model-issued JSON arguments are unpacked by the
// Registry before Execute is called.
type Tool interface {
	Name() string
	Description() string
	Argument() Argument
	Execute(ctx context.Context, input string) Result
}

// Schema returns the JSON Schema for a tool's input object.
func Schema(t Tool) map[string]any {
	arg := t.Argument()
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			arg.Name: map[string]any{
				"type":        "string",
				"description": arg.Description,
			},
		},
		"required": []string{arg.Name},
	}
}

// Run executes t, converting a panic into an execution failure and recording
// the outcome metric.
func Run(ctx context.Context, t Tool, input string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail(KindExecution, "executing %s: %v", t.Name(), r)
		}
		observability.ObserveTool(t.Name(), res.Failed())
	}()
	return t.Execute(ctx, input)
}

// Registry manages the set of available tools.
type Registry struct {
	Tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	if _, exists := r.Tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.Tools[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.Tools[name])
	}
	return out
}

// Definitions returns the function definitions to bind to a model call.
func (r *Registry) Definitions() []llms.Tool {
	var defs []llms.Tool
	for _, t := range r.List() {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  Schema(t),
			},
		})
	}
	return defs
}

// Invoke runs the named tool with model-supplied arguments.
func (r *Registry) Invoke(ctx context.Context, name, rawArgs string) Result {
	t := r.Get(name)
	if t == nil {
		return Fail(KindNotFound, "tool %s not found", name)
	}
	input, err := DecodeArgument(t.Argument(), rawArgs)
	if err != nil {
		return Fail(KindInvalidInput, "%v", err)
	}
	return Run(ctx, t, input)
}

// DecodeArgument extracts the tool's input string from a JSON arguments
// object. Plain text that is not a JSON object is passed through unchanged.
func DecodeArgument(arg Argument, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return "", fmt.Errorf("invalid arguments: %v", err)
	}
	if v, ok := fields[arg.Name]; ok {
		return stringify(v), nil
	}
	// Models occasionally rename the only parameter; accept a lone field.
	if len(fields) == 1 {
		for _, v := range fields {
			return stringify(v), nil
		}
	}
	if len(fields) == 0 {
		return "", nil
	}
	return "", fmt.Errorf("missing argument %q", arg.Name)
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
