package file

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/gowebpki/jcs"
	"github.com/kaptinlin/jsonschema"
)

const recordVersion = 1

//go:embed schema/session_state.schema.json
var sessionStateSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// record is the on-disk envelope of a session state. Digest is the sha256 of
// the RFC 8785 canonical form of State, so a torn or hand-edited file is
// detected instead of silently trusted.
type record struct {
	Version int             `json:"version"`
	Digest  string          `json:"digest"`
	State   json.RawMessage `json:"state"`
}

func stateSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile(sessionStateSchema)
	})
	return compiledSchema, schemaErr
}

func digest(raw []byte) (string, error) {
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize state: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func encodeRecord(state *domain.SessionState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	sum, err := digest(raw)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(record{Version: recordVersion, Digest: sum, State: raw}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// decodeRecord parses an envelope. A bare state object (as written by older
// hooks) is accepted without a digest check but still has to pass the schema.
func decodeRecord(data []byte) (*domain.SessionState, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}

	raw := []byte(rec.State)
	if len(rec.State) == 0 {
		raw = data
	} else if rec.Digest != "" {
		sum, err := digest(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
		}
		if sum != rec.Digest {
			return nil, fmt.Errorf("%w: digest mismatch", domain.ErrCorruptState)
		}
	}

	schema, err := stateSchema()
	if err != nil {
		return nil, fmt.Errorf("compile state schema: %w", err)
	}
	if result := schema.ValidateJSON(raw); !result.IsValid() {
		return nil, fmt.Errorf("%w: schema validation failed: %v", domain.ErrCorruptState, result.Errors)
	}

	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	return &state, nil
}
