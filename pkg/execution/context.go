// Package execution provides the in-memory context shared across the nodes
// of one workflow run: named variables, per-node outputs, and the template
// resolver that substitutes {{expr}} spans in node configuration.
package execution

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Variable is a named value stored in the context.
type Variable struct {
	Value     any       `json:"value"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NodeOutput is the result object recorded for a node so downstream nodes
// can reference it.
type NodeOutput struct {
	Output    map[string]any `json:"output"`
	Timestamp time.Time      `json:"timestamp"`
}

// Context is the single source of truth for cross-node data during one run.
// It performs no I/O and is accessed by exactly one goroutine at a time
// (nodes run strictly sequentially), so it carries no locking.
type Context struct {
	ExecutionID string
	WorkflowID  string
	TriggerData map[string]any

	variables map[string]Variable
	outputs   map[string]NodeOutput
}

// NewContext creates an empty context for one execution.
func NewContext(executionID, workflowID string) *Context {
	return &Context{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		variables:   make(map[string]Variable),
		outputs:     make(map[string]NodeOutput),
	}
}

// SetVariable stores a named value. When varType is empty it defaults to the
// runtime type of the value.
func (c *Context) SetVariable(name string, value any, varType string) {
	if varType == "" {
		varType = runtimeType(value)
	}

	c.variables[name] = Variable{
		Value:     value,
		Type:      varType,
		Timestamp: time.Now().UTC(),
	}
}

// GetVariable reads a named value.
func (c *Context) GetVariable(name string) (Variable, bool) {
	v, ok := c.variables[name]

	return v, ok
}

// SetNodeOutput records the result object produced by a node.
func (c *Context) SetNodeOutput(nodeID string, output map[string]any) {
	c.outputs[nodeID] = NodeOutput{
		Output:    output,
		Timestamp: time.Now().UTC(),
	}
}

// GetNodeOutput reads the result object recorded for a node.
func (c *Context) GetNodeOutput(nodeID string) (NodeOutput, bool) {
	o, ok := c.outputs[nodeID]

	return o, ok
}

// VariableValues returns all variables as a plain name-to-value map.
func (c *Context) VariableValues() map[string]any {
	values := make(map[string]any, len(c.variables))
	for name, variable := range c.variables {
		values[name] = variable.Value
	}

	return values
}

// OutputValues returns all node outputs keyed by node ID.
func (c *Context) OutputValues() map[string]any {
	values := make(map[string]any, len(c.outputs))
	for nodeID, output := range c.outputs {
		values[nodeID] = output.Output
	}

	return values
}

var templatePattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ResolveTemplate substitutes every {{expr}} span in text.
//
// "{{json name}}" serializes the looked-up value as JSON; when the lookup
// misses or serialization fails the span becomes the literal "null". Any
// other expression is coerced to its string form; an unresolved identifier
// yields the empty string. Misses are silent, never errors: downstream nodes
// rely on partially-configured workflows resolving rather than failing.
func (c *Context) ResolveTemplate(text string) string {
	return templatePattern.ReplaceAllStringFunc(text, func(span string) string {
		expr := strings.TrimSpace(templatePattern.FindStringSubmatch(span)[1])

		if rest, ok := strings.CutPrefix(expr, "json "); ok {
			value, _ := c.Lookup(strings.TrimSpace(rest))

			encoded, err := json.Marshal(value)
			if err != nil {
				return "null"
			}

			return string(encoded)
		}

		value, found := c.Lookup(expr)
		if !found || value == nil {
			return ""
		}

		return stringify(value)
	})
}

// ResolveValue resolves text like ResolveTemplate, except that when the
// whole string is exactly one {{expr}} span the native looked-up value is
// returned instead of its string form. Used by executors that assign values
// rather than build strings.
func (c *Context) ResolveValue(text string) any {
	trimmed := strings.TrimSpace(text)

	match := templatePattern.FindStringSubmatch(trimmed)
	if match != nil && match[0] == trimmed {
		expr := strings.TrimSpace(match[1])
		if rest, ok := strings.CutPrefix(expr, "json "); ok {
			value, _ := c.Lookup(strings.TrimSpace(rest))

			return value
		}

		value, found := c.Lookup(expr)
		if !found {
			return ""
		}

		return value
	}

	return c.ResolveTemplate(text)
}

// ResolveTemplateInObject applies ResolveTemplate recursively through nested
// maps and slices, leaving non-string leaves untouched.
func (c *Context) ResolveTemplateInObject(value any) any {
	switch v := value.(type) {
	case string:
		return c.ResolveTemplate(v)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = c.ResolveTemplateInObject(item)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = c.ResolveTemplateInObject(item)
		}

		return resolved
	default:
		return value
	}
}

// Lookup resolves a dotted/bracket path expression against the context. The
// first segment names a variable, falling back to a node output; the
// remaining segments traverse into the value.
func (c *Context) Lookup(expr string) (any, bool) {
	segments := splitPath(expr)
	if len(segments) == 0 {
		return nil, false
	}

	var root any

	if v, ok := c.variables[segments[0]]; ok {
		root = v.Value
	} else if o, ok := c.outputs[segments[0]]; ok {
		root = o.Output
	} else {
		return nil, false
	}

	return traverse(root, segments[1:])
}

// Snapshot exports a deep copy of the whole context state.
type Snapshot struct {
	ExecutionID string                `json:"execution_id"`
	WorkflowID  string                `json:"workflow_id"`
	TriggerData map[string]any        `json:"trigger_data,omitempty"`
	Variables   map[string]Variable   `json:"variables"`
	Outputs     map[string]NodeOutput `json:"outputs"`
}

// GetSnapshot deep-copies the context. Unused by the orchestrator today; it
// is the extension point for a future resumable-execution feature.
func (c *Context) GetSnapshot() *Snapshot {
	snapshot := &Snapshot{
		ExecutionID: c.ExecutionID,
		WorkflowID:  c.WorkflowID,
		TriggerData: deepCopyMap(c.TriggerData),
		Variables:   make(map[string]Variable, len(c.variables)),
		Outputs:     make(map[string]NodeOutput, len(c.outputs)),
	}

	for name, v := range c.variables {
		snapshot.Variables[name] = Variable{
			Value:     deepCopyValue(v.Value),
			Type:      v.Type,
			Timestamp: v.Timestamp,
		}
	}

	for nodeID, o := range c.outputs {
		snapshot.Outputs[nodeID] = NodeOutput{
			Output:    deepCopyMap(o.Output),
			Timestamp: o.Timestamp,
		}
	}

	return snapshot
}

// Restore builds a context from a snapshot, deep-copying so that mutating
// the restored context never affects the snapshot or its origin.
func Restore(snapshot *Snapshot) *Context {
	restored := NewContext(snapshot.ExecutionID, snapshot.WorkflowID)
	restored.TriggerData = deepCopyMap(snapshot.TriggerData)

	for name, v := range snapshot.Variables {
		restored.variables[name] = Variable{
			Value:     deepCopyValue(v.Value),
			Type:      v.Type,
			Timestamp: v.Timestamp,
		}
	}

	for nodeID, o := range snapshot.Outputs {
		restored.outputs[nodeID] = NodeOutput{
			Output:    deepCopyMap(o.Output),
			Timestamp: o.Timestamp,
		}
	}

	return restored
}

func runtimeType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// splitPath splits "a.b[0].c" into ["a", "b", "0", "c"].
func splitPath(expr string) []string {
	expr = strings.TrimPrefix(expr, "$.")

	replaced := strings.NewReplacer("[", ".", "]", "").Replace(expr)

	parts := strings.Split(replaced, ".")
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}

	return segments
}

func traverse(value any, segments []string) (any, bool) {
	current := value

	for _, segment := range segments {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}

			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(v) {
				return nil, false
			}

			current = v[index]
		default:
			return nil, false
		}
	}

	return current, true
}

func deepCopyMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}

	copied := make(map[string]any, len(source))
	for key, value := range source {
		copied[key] = deepCopyValue(value)
	}

	return copied
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return deepCopyMap(v)
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = deepCopyValue(item)
		}

		return copied
	default:
		return v
	}
}
