// Package tool defines the executor contract nodes use to invoke MCP tools,
// plus a registry-backed executor for deterministic, locally implemented
// tools. Inputs and results are validated against their struct tags before
// and after dispatch.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Executor errors.
var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidInput    = errors.New("tool input failed validation")
	ErrInvalidResult   = errors.New("tool result failed validation")
	ErrNilResultTarget = errors.New("result target cannot be nil")
)

// Metadata describes a tool to the calling LLM: its name, what it does, and
// (implicitly, via the input struct's tags) its input schema.
type Metadata struct {
	Name        string
	Description string
}

// Executor invokes a tool by metadata with a schema-described input, decoding
// the validated result into result (a non-nil pointer).
type Executor interface {
	Execute(ctx context.Context, meta Metadata, input any, result any) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, meta Metadata, input any, result any) error

func (f ExecutorFunc) Execute(ctx context.Context, meta Metadata, input any, result any) error {
	return f(ctx, meta, input, result)
}

// Handler implements one tool. It receives the already-validated input and
// returns a result value that is decoded into the caller's result target.
type Handler func(ctx context.Context, input any) (any, error)

// Registry is an Executor dispatching to locally registered handlers.
type Registry struct {
	handlers map[string]Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handler under the tool's name, replacing any previous one.
func (r *Registry) Register(meta Metadata, h Handler) {
	r.handlers[meta.Name] = h
}

// Execute validates input, dispatches to the registered handler, and decodes
// the handler's return value into result, validating it as well.
func (r *Registry) Execute(ctx context.Context, meta Metadata, input any, result any) error {
	h, ok := r.handlers[meta.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, meta.Name)
	}
	if err := r.validateValue(input); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, meta.Name, err)
	}

	r.logger.Debug("executing tool", "tool", meta.Name)
	out, err := h(ctx, input)
	if err != nil {
		return fmt.Errorf("tool %s: %w", meta.Name, err)
	}
	if err := decodeInto(out, result); err != nil {
		return fmt.Errorf("tool %s: %w", meta.Name, err)
	}
	if err := r.validateValue(result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResult, meta.Name, err)
	}
	return nil
}

// validateValue runs struct validation when the value is (a pointer to) a
// struct; other shapes pass through.
func (r *Registry) validateValue(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return r.validate.Struct(rv.Interface())
}

// decodeInto moves the handler's result into the caller's target through a
// JSON round trip, so handlers may return either the target's exact type or
// a loosely shaped map.
func decodeInto(out any, result any) error {
	if result == nil {
		return ErrNilResultTarget
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode tool result: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode tool result: %w", err)
	}
	return nil
}
