package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt is one invocable prompt of the catalog.
type Prompt struct {
	ID         string     `yaml:"id" json:"id"`
	Category   string     `yaml:"category" json:"category"`
	IsChain    bool       `yaml:"is_chain" json:"is_chain"`
	ChainSteps int        `yaml:"chain_steps" json:"chain_steps"`
	Arguments  []Argument `yaml:"arguments" json:"arguments"`
}

// Argument is a named prompt parameter.
type Argument struct {
	Name    string `yaml:"name" json:"name"`
	Default string `yaml:"default" json:"default"`
}

// Catalog resolves prompt IDs typed by the user as ">>id".
type Catalog interface {
	Prompt(id string) (Prompt, bool)
}

// CatalogFile represents the structure of prompts.yaml.
type CatalogFile struct {
	Prompts []Prompt `yaml:"prompts" json:"prompts"`
}

// FileCatalog is a Catalog read once from a YAML or JSON file.
type FileCatalog struct {
	prompts map[string]Prompt
}

// Prompt looks up a prompt by ID.
func (c *FileCatalog) Prompt(id string) (Prompt, bool) {
	if c == nil {
		return Prompt{}, false
	}
	p, ok := c.prompts[id]
	return p, ok
}

// Len returns the number of prompts.
func (c *FileCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.prompts)
}

// LoadCatalog reads a catalog file. A missing file returns (nil, nil): there
// is no catalog to consult.
func LoadCatalog(path string) (*FileCatalog, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}

	var file CatalogFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
		}
	}

	c := &FileCatalog{prompts: make(map[string]Prompt, len(file.Prompts))}
	for _, p := range file.Prompts {
		if p.ID == "" {
			continue
		}
		c.prompts[p.ID] = p
	}
	return c, nil
}
