package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema reflects the JSON Schema of the config file format.
// Editors can use it to validate .scriptkit.yml files.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "scriptkit project configuration"
	return s
}

// SchemaJSON returns Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
