package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetGetVariable(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")

	ctx.SetVariable("name", "braid", "")
	ctx.SetVariable("count", float64(3), "")
	ctx.SetVariable("custom", "x", "secret")

	v, ok := ctx.GetVariable("name")
	require.True(t, ok)
	assert.Equal(t, "braid", v.Value)
	assert.Equal(t, "string", v.Type)

	v, ok = ctx.GetVariable("count")
	require.True(t, ok)
	assert.Equal(t, "number", v.Type)

	v, ok = ctx.GetVariable("custom")
	require.True(t, ok)
	assert.Equal(t, "secret", v.Type)

	_, ok = ctx.GetVariable("missing")
	assert.False(t, ok)
}

func TestContext_SetGetNodeOutput(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")

	ctx.SetNodeOutput("node-1", map[string]any{"status": float64(200)})

	out, ok := ctx.GetNodeOutput("node-1")
	require.True(t, ok)
	assert.Equal(t, float64(200), out.Output["status"])

	_, ok = ctx.GetNodeOutput("node-2")
	assert.False(t, ok)
}

func TestResolveTemplate_Basic(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("user", "ada", "")
	ctx.SetVariable("count", float64(2), "")

	assert.Equal(t, "hello ada", ctx.ResolveTemplate("hello {{user}}"))
	assert.Equal(t, "2 items", ctx.ResolveTemplate("{{count}} items"))
	assert.Equal(t, "plain text", ctx.ResolveTemplate("plain text"))
}

func TestResolveTemplate_MissYieldsEmptyString(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")

	assert.Equal(t, "", ctx.ResolveTemplate("{{missing}}"))
	assert.Equal(t, "before  after", ctx.ResolveTemplate("before {{missing}} after"))
}

func TestResolveTemplate_JSONMissYieldsNull(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")

	assert.Equal(t, "null", ctx.ResolveTemplate("{{json missing}}"))
}

func TestResolveTemplate_JSONSerializesValue(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("payload", map[string]any{"a": float64(1)}, "")

	assert.Equal(t, `{"a":1}`, ctx.ResolveTemplate("{{json payload}}"))
}

func TestResolveTemplate_DottedPath(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("r", map[string]any{
		"data":  "ok",
		"items": []any{"first", "second"},
	}, "")

	assert.Equal(t, "ok", ctx.ResolveTemplate("{{r.data}}"))
	assert.Equal(t, "second", ctx.ResolveTemplate("{{r.items[1]}}"))
	assert.Equal(t, "", ctx.ResolveTemplate("{{r.missing.deep}}"))
}

func TestResolveTemplate_NodeOutputFallback(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetNodeOutput("http-1", map[string]any{"status": float64(200)})

	assert.Equal(t, "200", ctx.ResolveTemplate("{{http-1.status}}"))
}

func TestResolveTemplate_VariableShadowsNodeOutput(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetNodeOutput("r", map[string]any{"from": "output"})
	ctx.SetVariable("r", map[string]any{"from": "variable"}, "")

	assert.Equal(t, "variable", ctx.ResolveTemplate("{{r.from}}"))
}

func TestResolveValue_FullSpanKeepsNativeType(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("r", map[string]any{"data": "ok", "n": float64(5)}, "")

	assert.Equal(t, "ok", ctx.ResolveValue("{{r.data}}"))
	assert.Equal(t, float64(5), ctx.ResolveValue("{{r.n}}"))
	assert.Equal(t, map[string]any{"data": "ok", "n": float64(5)}, ctx.ResolveValue("{{r}}"))

	// Mixed text falls back to string resolution.
	assert.Equal(t, "n=5", ctx.ResolveValue("n={{r.n}}"))

	// Misses stay silent.
	assert.Equal(t, "", ctx.ResolveValue("{{missing}}"))
}

func TestResolveTemplateInObject(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("city", "Lisbon", "")

	input := map[string]any{
		"greeting": "hello {{city}}",
		"nested": map[string]any{
			"list": []any{"{{city}}", float64(42), true},
		},
		"untouched": float64(7),
	}

	resolved := ctx.ResolveTemplateInObject(input)

	expected := map[string]any{
		"greeting": "hello Lisbon",
		"nested": map[string]any{
			"list": []any{"Lisbon", float64(42), true},
		},
		"untouched": float64(7),
	}
	assert.Equal(t, expected, resolved)
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("config", map[string]any{"retries": float64(3)}, "")
	ctx.SetNodeOutput("node-1", map[string]any{"body": "hello"})

	restored := Restore(ctx.GetSnapshot())

	v, ok := restored.GetVariable("config")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"retries": float64(3)}, v.Value)

	out, ok := restored.GetNodeOutput("node-1")
	require.True(t, ok)
	assert.Equal(t, "hello", out.Output["body"])
}

func TestSnapshotRestore_DeepCopy(t *testing.T) {
	ctx := NewContext("exec-1", "wf-1")
	ctx.SetVariable("config", map[string]any{"retries": float64(3)}, "")

	restored := Restore(ctx.GetSnapshot())

	// Mutating the restored copy must not leak back into the original.
	v, _ := restored.GetVariable("config")
	v.Value.(map[string]any)["retries"] = float64(99)

	original, _ := ctx.GetVariable("config")
	assert.Equal(t, float64(3), original.Value.(map[string]any)["retries"])
}
