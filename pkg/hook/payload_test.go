package hook_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/gatehook/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ResolvesAlternateKeys(t *testing.T) {
	p := hook.Parse([]byte(`{
		"toolName": "prompt_engine",
		"sessionId": "s1",
		"toolInput": {"gate_verdict": "GATE_REVIEW: PASS"},
		"result": "ok",
		"hookEventName": "BeforeTool"
	}`))

	assert.Equal(t, "prompt_engine", p.ToolName)
	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, "GATE_REVIEW: PASS", p.InputString("gate_verdict"))
	assert.Equal(t, "ok", p.ResponseText())
	assert.Equal(t, "BeforeTool", p.Event)
}

func TestParse_PrefersFirstNonBlankKey(t *testing.T) {
	p := hook.Parse([]byte(`{"tool_name": "", "toolName": "write_file", "name": "other", "tool_input": {}, "toolInput": {"content": "x"}}`))

	assert.Equal(t, "write_file", p.ToolName)
	assert.Equal(t, "x", p.InputString("content"))
}

func TestParse_MalformedIsEmpty(t *testing.T) {
	for _, in := range []string{"", "not json", "[1,2]", "null", "42"} {
		p := hook.Parse([]byte(in))
		assert.Empty(t, p.ToolName, in)
		assert.Empty(t, p.SessionID, in)
		assert.NotNil(t, p.ToolInput, in)
		assert.Empty(t, p.ResponseText(), in)
	}
}

func TestRead(t *testing.T) {
	p, raw := hook.Read(strings.NewReader(`{"prompt": ">>plan"}`))
	assert.Equal(t, ">>plan", p.Prompt)
	assert.Equal(t, `{"prompt": ">>plan"}`, string(raw))
}

func TestResponseText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"string", `{"tool_response": "plain"}`, "plain"},
		{"content string", `{"tool_response": {"content": "inner"}}`, "inner"},
		{"content blocks", `{"tool_response": {"content": [{"type": "text", "text": "a"}, {"text": "b"}]}}`, "a b"},
		{"text field", `{"tool_response": {"text": "t"}}`, "t"},
		{"absent", `{}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, hook.Parse([]byte(tc.in)).ResponseText())
		})
	}
}

func TestDecode(t *testing.T) {
	var args hook.PromptEngineArgs
	require.NoError(t, hook.Decode(map[string]any{"chain_id": 42, "gate_verdict": "GATE_REVIEW: FAIL - x", "extra": true}, &args))
	assert.Equal(t, "42", args.ChainID)
	assert.Equal(t, "GATE_REVIEW: FAIL - x", args.GateVerdict)

	var file hook.FileEditArgs
	require.NoError(t, hook.Decode(map[string]any{"filePath": "a.go", "oldString": "foo"}, &file))
	assert.Equal(t, "a.go", file.Path())
	assert.Equal(t, "foo", file.Old())

	var task hook.TaskArgs
	require.NoError(t, hook.Decode(map[string]any{}, &task))
	assert.Equal(t, "unknown", task.Agent())
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, hook.Write(&buf, hook.Output{}))
	assert.Empty(t, buf.String())

	require.NoError(t, hook.Write(&buf, hook.Deny("Gate pending: g. Submit gate_verdict first.")))
	assert.JSONEq(t, `{"decision":"deny","reason":"Gate pending: g. Submit gate_verdict first."}`, buf.String())

	buf.Reset()
	require.NoError(t, hook.Write(&buf, hook.Context(hook.EventAfterTool, "[Gate] g")))
	assert.JSONEq(t, `{"hookSpecificOutput":{"hookEventName":"AfterTool","additionalContext":"[Gate] g"}}`, buf.String())

	assert.True(t, hook.Context(hook.EventAfterTool, "").IsEmpty())
}
