// Package prompts holds the embedded extraction prompt.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var promptFiles embed.FS

// Example is a worked input/output pair shown to the model.
type Example struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// Prompt is one prompt definition.
type Prompt struct {
	Name        string  `yaml:"name"`
	Version     int     `yaml:"version"`
	System      string  `yaml:"system"`
	Example     Example `yaml:"example"`
	Instruction string  `yaml:"instruction"`
}

// Load reads the named prompt file.
func Load(name string) (*Prompt, error) {
	filename := name + ".yaml"
	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if strings.TrimSpace(p.System) == "" {
		return nil, fmt.Errorf("prompt %s has no system text", name)
	}
	return &p, nil
}

// Extraction loads the prescription extraction prompt.
func Extraction() (*Prompt, error) {
	return Load("extraction")
}

// SystemText renders the system prompt followed by the worked example.
func (p *Prompt) SystemText() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.System))
	if p.Example.Output != "" {
		b.WriteString("\n\nExample document:\n")
		b.WriteString(strings.TrimSpace(p.Example.Input))
		b.WriteString("\n\nExpected output:\n")
		b.WriteString(strings.TrimSpace(p.Example.Output))
	}
	return b.String()
}
