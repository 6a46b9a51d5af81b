package hook

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Key priorities for each logical field, first match wins.
var (
	EventKeys        = []string{"hook_event_name", "hookEventName", "event"}
	ToolNameKeys     = []string{"tool_name", "toolName", "name"}
	SessionIDKeys    = []string{"session_id", "sessionId"}
	ToolInputKeys    = []string{"tool_input", "toolInput"}
	ToolResponseKeys = []string{"tool_response", "toolResponse", "result"}
	PromptKeys       = []string{"prompt", "message", "userMessage", "input"}
)

// FirstValue returns the value of the first key whose value is not blank.
// Blank means absent, nil, "", false, or an empty map/slice.
func FirstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || blank(v) {
			continue
		}
		return v
	}
	return nil
}

// FirstString is FirstValue restricted to strings. Non-string values are skipped.
func FirstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// FirstMap is FirstValue restricted to JSON objects.
func FirstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if sub, ok := m[k].(map[string]any); ok && len(sub) > 0 {
			return sub
		}
	}
	return map[string]any{}
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

// Decode maps a tool-input object onto a typed view. Unknown keys are ignored
// and scalar types are coerced (a numeric chain id becomes a string).
func Decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decode tool input: %w", err)
	}
	return nil
}
