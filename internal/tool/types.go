// Package tool defines the catalog of operations the model may request and
// the registry that validates and dispatches those requests.
//
// The types are provider-agnostic: the llm package translates them into
// whatever wire format the configured provider expects.
package tool

import "encoding/json"

// FunctionType is the tool type understood by every major provider.
const FunctionType = "function"

// Definition describes one callable operation to the model.
type Definition struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function holds the name, description and parameter schema of an operation.
// The description is what the model uses to decide when to call the tool.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is a minimal, typed JSON Schema representation for tool
// parameters. Using a struct instead of map[string]any keeps definitions
// honest and lets the registry validate arguments against them.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// Call is one concrete invocation request produced by the model. ID is an
// opaque correlation identifier that must be echoed back with the result.
type Call struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// NewDefinition builds a function-typed tool definition.
func NewDefinition(name, description string, parameters JSONSchema) Definition {
	return Definition{
		Type: FunctionType,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
