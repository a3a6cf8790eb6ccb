// Package toolspec defines the declarative tool catalog of spec §4.2 and
// the ToolCall/ToolResult/ToolDescriptor entities of spec §3. The
// registry is grounded on the teacher's generic
// pkg/registry.BaseRegistry[T] (kadirpekel-hector) — read-only once the
// loop starts, per the invariant.
package toolspec

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/ollamabot/agentcore/pkg/registry"
)

// SideEffectClass is one of the four exhaustive classes of spec §4.2.
type SideEffectClass string

const (
	Pure      SideEffectClass = "pure"
	ReadOnly  SideEffectClass = "read_only"
	Mutating  SideEffectClass = "mutating"
	External  SideEffectClass = "external"
)

// ArgType is the wire-level type of a single tool argument.
type ArgType string

const (
	ArgString     ArgType = "string"
	ArgInt        ArgType = "int"
	ArgBool       ArgType = "bool"
	ArgStringList ArgType = "string-list"
	ArgObjectList ArgType = "object-list"
)

// ArgSpec describes one argument of a ToolDescriptor.
type ArgSpec struct {
	Name        string
	Type        ArgType
	Required    bool
	Description string
}

// ToolDescriptor is the fixed, declarative description of one tool
// (spec §3 "ToolDescriptor"). Descriptors are registered once at
// startup; the registry is read-only thereafter.
type ToolDescriptor struct {
	Name        string
	Description string
	Args        []ArgSpec
	SideEffect  SideEffectClass
}

// ToolCall is one parsed request from the model (spec §3 "ToolCall").
// Immutable once constructed.
type ToolCall struct {
	ID   string
	Name string
	Args Args
}

// ToolResult links back to a ToolCall by id (spec §3 "ToolResult").
// Immutable; success=false carries a human-sentence Output per §7.
type ToolResult struct {
	ToolCallID string
	Success    bool
	Output     string
}

// Definition is the wire form a ModelBackend expects for tool
// declarations (spec §6.1 "tools: [...]").
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Catalog is the read-only, serialised-once-per-loop set of tool
// definitions handed to the ModelBackend.
type Catalog struct {
	registry *registry.BaseRegistry[ToolDescriptor]
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{registry: registry.NewBaseRegistry[ToolDescriptor]()}
}

// Register adds a descriptor. Intended to be called only during startup;
// spec's "registry is read-only thereafter" is honoured by convention
// (no Remove/Clear call sites exist past catalog construction).
func (c *Catalog) Register(d ToolDescriptor) error {
	return c.registry.Register(d.Name, d)
}

// Get returns a tool's descriptor by name.
func (c *Catalog) Get(name string) (ToolDescriptor, bool) {
	return c.registry.Get(name)
}

// SideEffectOf returns the side-effect class of a named tool, or
// External if the tool is unknown (the conservative default: unknown
// tools are never cached or parallelised).
func (c *Catalog) SideEffectOf(name string) SideEffectClass {
	d, ok := c.registry.Get(name)
	if !ok {
		return External
	}
	return d.SideEffect
}

// Descriptors returns every registered descriptor, in no particular order.
func (c *Catalog) Descriptors() []ToolDescriptor {
	return c.registry.List()
}

// Definitions serialises the catalog into the wire form of spec §6.1,
// building each tool's JSON-schema-shaped parameter object via
// invopop/jsonschema-compatible hand-built schemas (arguments are
// already declarative ArgSpecs, not Go structs, so the schema is built
// directly rather than reflected — jsonschema.Reflector is reserved for
// any future struct-backed tool argument types).
func (c *Catalog) Definitions() []Definition {
	descs := c.registry.List()
	defs := make([]Definition, 0, len(descs))
	for _, d := range descs {
		defs = append(defs, Definition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  argSchema(d.Args),
		})
	}
	return defs
}

func argSchema(args []ArgSpec) map[string]any {
	props := make(map[string]any, len(args))
	var required []string
	for _, a := range args {
		props[a.Name] = map[string]any{
			"type":        jsonSchemaType(a.Type),
			"description": a.Description,
		}
		if a.Required {
			required = append(required, a.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonSchemaType(t ArgType) string {
	switch t {
	case ArgInt:
		return "integer"
	case ArgBool:
		return "boolean"
	case ArgStringList, ArgObjectList:
		return "array"
	default:
		return "string"
	}
}

// ReflectSchema uses invopop/jsonschema to derive a JSON-schema document
// from a Go struct, for tools whose arguments are better expressed as a
// typed struct (e.g. multi_edit's edits list) than a hand-built ArgSpec
// slice.
func ReflectSchema(v any) (map[string]any, error) {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := r.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode reflected schema: %w", err)
	}
	return out, nil
}
