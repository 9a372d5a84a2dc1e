// Package schema validates settlement artifacts against the published JSON
// contract before they enter consolidation. Artifacts come from prior runs
// and from other tools, so shape is checked at the boundary rather than
// assumed.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed record.schema.json
var recordSchemaJSON string

var recordSchema = mustCompile("record.schema.json", recordSchemaJSON)

func mustCompile(name, src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

// ValidateRecord checks one serialized artifact against the record schema.
func ValidateRecord(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse artifact: %w", err)
	}
	if err := recordSchema.Validate(v); err != nil {
		return fmt.Errorf("artifact schema: %w", err)
	}
	return nil
}
