package definition

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/agent.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// getSchema compiles the embedded frontmatter schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("agent.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("agent.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateSchema validates parsed frontmatter against the embedded JSON
// schema. The frontmatter is round-tripped through JSON so the validator
// sees JSON-compatible types.
func (fm *Frontmatter) ValidateSchema() error {
	schema, err := getSchema()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(fm)
	if err != nil {
		return fmt.Errorf("convert frontmatter to JSON: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("prepare frontmatter for validation: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("frontmatter schema: %w", err)
	}
	return nil
}
