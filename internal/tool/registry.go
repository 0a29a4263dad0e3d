package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownTool is returned when the model requests a name outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidArguments is returned when a call's arguments are malformed JSON
// or do not conform to the tool's declared schema.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Handler executes one domain operation with schema-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	def     Definition
	handler Handler
}

// Registry maps tool names to their handlers. It is populated once at
// startup; the only unknown-name path left at runtime is model-supplied
// input, which Dispatch always checks.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool definition and its handler. Registering the same name
// twice is a programming error and panics at startup rather than silently
// shadowing a handler.
func (r *Registry) Register(def Definition, h Handler) {
	name := def.Function.Name
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("tool %q registered twice", name))
	}
	r.order = append(r.order, name)
	r.entries[name] = entry{def: def, handler: h}
}

// Definitions returns the catalog in registration order, for attaching to a
// model request.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Dispatch validates the named call's raw JSON arguments against the tool's
// declared schema and invokes its handler. Model-supplied input is treated as
// adversarial: unknown names, malformed JSON and schema violations all come
// back as errors, never as panics.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) (any, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	args := map[string]any{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON: %v", ErrInvalidArguments, err)
		}
	}

	if err := validateArgs(e.def.Function.Parameters, args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	return e.handler(ctx, args)
}

// validateArgs checks required fields and primitive types against the schema.
func validateArgs(schema JSONSchema, args map[string]any) error {
	for _, req := range schema.Required {
		if _, ok := args[req]; !ok {
			return fmt.Errorf("missing required field %q", req)
		}
	}

	for key, value := range args {
		prop, ok := schema.Properties[key]
		if !ok {
			// Unknown fields are tolerated; models occasionally add extras.
			continue
		}
		if err := checkType(key, prop.Type, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(key, typ string, value any) error {
	switch typ {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q must be a string", key)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("field %q must be an integer", key)
		}
	case "number":
		// Monetary fields accept strings too; the normalizer performs the
		// real check downstream.
		switch value.(type) {
		case float64, string:
		default:
			return fmt.Errorf("field %q must be a number", key)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", key)
		}
	}
	return nil
}
