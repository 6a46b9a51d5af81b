package file

import (
	"context"
	"encoding/json"
	"os"
	"strings"
)

// ControlFile reads the externally written file naming the active loop
// (verify-active.json). It is read-only from this side.
type ControlFile struct {
	Path string
}

// NewControlFile creates a reader for the control file at path.
func NewControlFile(path string) *ControlFile {
	return &ControlFile{Path: path}
}

// ActiveLoop returns the loop ID named by the control file. A missing, empty
// or unparsable file means no loop is active.
func (c *ControlFile) ActiveLoop(ctx context.Context) (string, bool) {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return "", false
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false
	}
	for _, key := range []string{"sessionId", "session_id", "loopId", "loop_id"} {
		if v, ok := doc[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
