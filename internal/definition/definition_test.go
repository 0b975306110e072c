package definition

import (
	"strings"
	"testing"
)

const sampleAgent = `---
name: code-reviewer
description: Reviews code against project guidelines
version: 1.2.0
capabilities: [review, lint]
tools:
  - Read
  - Grep
---
You are a code reviewer. Be thorough.
`

func TestParse(t *testing.T) {
	fm, body, err := Parse([]byte(sampleAgent))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fm.Name != "code-reviewer" {
		t.Errorf("expected name 'code-reviewer', got %q", fm.Name)
	}
	if fm.Description != "Reviews code against project guidelines" {
		t.Errorf("unexpected description: %q", fm.Description)
	}
	if fm.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %q", fm.Version)
	}
	if len(fm.Capabilities) != 2 || fm.Capabilities[0] != "review" {
		t.Errorf("unexpected capabilities: %v", fm.Capabilities)
	}
	if len(fm.Tools) != 2 {
		t.Errorf("expected 2 tools, got %v", fm.Tools)
	}
	if !strings.HasPrefix(body, "You are a code reviewer.") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestParse_MissingFrontmatter(t *testing.T) {
	_, _, err := Parse([]byte("just a plain markdown file\n"))
	if err == nil {
		t.Fatal("expected error for missing frontmatter")
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	_, _, err := Parse([]byte("---\nname: x\ndescription: y\n"))
	if err == nil {
		t.Fatal("expected error for unclosed frontmatter")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, _, err := Parse([]byte("---\nname: [unclosed\n---\nbody"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fm      Frontmatter
		wantErr bool
	}{
		{"valid", Frontmatter{Name: "a", Description: "b"}, false},
		{"valid with version", Frontmatter{Name: "a", Description: "b", Version: "2.0.1"}, false},
		{"missing name", Frontmatter{Description: "b"}, true},
		{"blank name", Frontmatter{Name: "   "}, true},
		{"bad version", Frontmatter{Name: "a", Version: "not-semver"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fm.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateSchema(t *testing.T) {
	good := Frontmatter{Name: "code-reviewer", Description: "reviews code"}
	if err := good.ValidateSchema(); err != nil {
		t.Errorf("unexpected schema error: %v", err)
	}

	bad := Frontmatter{Name: "Has Spaces", Description: "x"}
	if err := bad.ValidateSchema(); err == nil {
		t.Error("expected schema error for name with spaces")
	}

	missing := Frontmatter{Name: "ok"}
	if err := missing.ValidateSchema(); err == nil {
		t.Error("expected schema error for missing description")
	}
}

func TestMetadataProjection(t *testing.T) {
	def := &Definition{
		Frontmatter: Frontmatter{Name: "alpha", Description: "an agent", Capabilities: []string{"review"}},
		Path:        "alpha.md",
		Size:        42,
		Prompt:      "You are alpha.",
	}
	m := def.Metadata()
	if m.Name != "alpha" || m.Path != "alpha.md" || m.Size != 42 {
		t.Errorf("projection dropped fields: %+v", m)
	}
	if m.ContentType != ContentType {
		t.Errorf("content type = %q", m.ContentType)
	}
}

func TestMetadataURI(t *testing.T) {
	m := Metadata{Name: "alpha"}
	if m.URI() != "agent://alpha" {
		t.Errorf("expected agent://alpha, got %q", m.URI())
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	fm, body, err := Parse([]byte(sampleAgent))
	if err != nil {
		t.Fatal(err)
	}

	def := &Definition{Frontmatter: *fm, Path: "agents/code-reviewer.md", Prompt: body}

	first, err := def.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	second, err := def.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	if first != second {
		t.Error("serialization should be deterministic")
	}
	if !strings.Contains(first, `"prompt"`) {
		t.Error("serialized form should include the prompt body")
	}
}
