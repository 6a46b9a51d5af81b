package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// maxPayload bounds how much stdin a hook reads.
const maxPayload = 16 * 1024 * 1024

// Payload is the resolved view of one hook invocation's input.
type Payload struct {
	Raw          map[string]any
	Event        string
	ToolName     string
	SessionID    string
	ToolInput    map[string]any
	ToolResponse any
	Prompt       string
}

// Parse resolves a payload from raw JSON. Anything that is not a JSON object
// yields an empty payload.
func Parse(data []byte) Payload {
	raw := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
			raw = map[string]any{}
		}
	}
	return FromMap(raw)
}

// FromMap resolves a payload from an already decoded object.
func FromMap(raw map[string]any) Payload {
	if raw == nil {
		raw = map[string]any{}
	}
	return Payload{
		Raw:          raw,
		Event:        FirstString(raw, EventKeys...),
		ToolName:     FirstString(raw, ToolNameKeys...),
		SessionID:    FirstString(raw, SessionIDKeys...),
		ToolInput:    FirstMap(raw, ToolInputKeys...),
		ToolResponse: FirstValue(raw, ToolResponseKeys...),
		Prompt:       FirstString(raw, PromptKeys...),
	}
}

// Read parses a payload from r, returning the raw bytes for debug logging.
func Read(r io.Reader) (Payload, []byte) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload))
	if err != nil {
		return Parse(nil), data
	}
	return Parse(data), data
}

// ReadStdin reads the payload from stdin. An interactive terminal is not read,
// so running a hook by hand does not hang waiting for input.
func ReadStdin() (Payload, []byte) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return Parse(nil), nil
	}
	return Read(os.Stdin)
}

// InputString returns the first non-blank string parameter of the tool input.
func (p Payload) InputString(keys ...string) string {
	return FirstString(p.ToolInput, keys...)
}

// ResponseText flattens the tool result into text. Strings pass through; an
// object contributes its "content", which may itself be a list of blocks
// whose "text" fields are joined with a space.
func (p Payload) ResponseText() string {
	return flatten(p.ToolResponse)
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		content, ok := t["content"]
		if !ok {
			if text, ok := t["text"].(string); ok {
				return text
			}
			return ""
		}
		if s, ok := content.(string); ok {
			return s
		}
		if blocks, ok := content.([]any); ok {
			return joinBlocks(blocks)
		}
		return toJSON(content)
	case []any:
		return joinBlocks(t)
	default:
		return toJSON(t)
	}
}

func joinBlocks(blocks []any) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if m, ok := b.(map[string]any); ok {
			text, _ := m["text"].(string)
			parts = append(parts, text)
			continue
		}
		parts = append(parts, fmt.Sprint(b))
	}
	return strings.Join(parts, " ")
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
