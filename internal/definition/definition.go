// Package definition provides the agent definition model and markdown parsing.
//
// Agent definitions are markdown files with YAML frontmatter:
//
//	---
//	name: code-reviewer
//	description: Reviews code against project guidelines
//	version: 1.2.0
//	capabilities: [review, lint]
//	---
//	You are a code reviewer...
package definition

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ContentType is the media type label reported for agent definitions.
const ContentType = "application/vnd.agentry.agent"

// ContentTypeJSON is the media type for JSON-serialized definitions
// returned by readDefinition.
const ContentTypeJSON = "application/vnd.agentry.agent+json"

// URIScheme is the identifier scheme for definition retrieval.
const URIScheme = "agent"

// Frontmatter represents the YAML frontmatter in agent markdown files.
type Frontmatter struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Version      string   `yaml:"version,omitempty" json:"version,omitempty"`
	Model        string   `yaml:"model,omitempty" json:"model,omitempty"`
	Tools        []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
}

// Definition is a fully loaded agent definition.
type Definition struct {
	Frontmatter `yaml:",inline"`

	// Path is the backing file location inside the store.
	Path string `json:"path"`

	// Size is the byte length of the backing file.
	Size int64 `json:"size"`

	// Prompt is the markdown body below the frontmatter.
	Prompt string `json:"prompt"`
}

// Metadata is the lightweight projection of a Definition used for
// discovery without loading the full body.
type Metadata struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Version      string   `json:"version,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	ContentType  string   `json:"contentType,omitempty"`
	Path         string   `json:"-"`
	Size         int64    `json:"-"`
}

// URI returns the retrieval identifier for this record.
func (m Metadata) URI() string {
	return URIScheme + "://" + m.Name
}

// Metadata returns the discovery projection of the definition.
func (d *Definition) Metadata() Metadata {
	return Metadata{
		Name:         d.Name,
		Description:  d.Description,
		Version:      d.Version,
		Capabilities: d.Capabilities,
		ContentType:  ContentType,
		Path:         d.Path,
		Size:         d.Size,
	}
}

// Serialize returns the definition as pretty-printed JSON, the payload
// format for readDefinition responses.
func (d *Definition) Serialize() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize definition %s: %w", d.Name, err)
	}
	return string(data), nil
}

// Parse parses an agent markdown file into frontmatter and prompt body.
func Parse(content []byte) (*Frontmatter, string, error) {
	str := string(content)

	if !strings.HasPrefix(str, "---\n") {
		return nil, "", fmt.Errorf("missing frontmatter delimiter")
	}

	endIdx := strings.Index(str[4:], "\n---")
	if endIdx == -1 {
		return nil, "", fmt.Errorf("missing closing frontmatter delimiter")
	}

	frontmatterStr := str[4 : 4+endIdx]
	bodyStr := strings.TrimPrefix(str[4+endIdx+4:], "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(frontmatterStr), &fm); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	return &fm, bodyStr, nil
}

// Validate checks frontmatter invariants beyond what the schema covers.
// Name is required; version, when present, must be valid semver.
func (fm *Frontmatter) Validate() error {
	if strings.TrimSpace(fm.Name) == "" {
		return fmt.Errorf("frontmatter missing name")
	}
	if fm.Version != "" {
		if _, err := semver.NewVersion(fm.Version); err != nil {
			return fmt.Errorf("invalid version %q: %w", fm.Version, err)
		}
	}
	return nil
}
