package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// StringOrList is a variable value that can be written as a scalar or a list.
// Lists render as their items joined by single spaces.
type StringOrList []string

// String joins the items with spaces.
func (s StringOrList) String() string {
	return strings.Join(s, " ")
}

// UnmarshalYAML implements yaml.Unmarshaler to handle scalar and list forms.
func (s *StringOrList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = StringOrList{value.Value}
		return nil
	case yaml.SequenceNode:
		result := make(StringOrList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			result = append(result, item.Value)
		}
		*s = result
		return nil
	default:
		return fmt.Errorf("line %d: value must be a string or a list of strings", value.Line)
	}
}

// MarshalYAML writes single values as scalars.
func (s StringOrList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *StringOrList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case []any:
		result := make(StringOrList, 0, len(v))
		for _, item := range v {
			str, err := tomlScalar(item)
			if err != nil {
				return err
			}
			result = append(result, str)
		}
		*s = result
		return nil
	default:
		str, err := tomlScalar(v)
		if err != nil {
			return err
		}
		*s = StringOrList{str}
		return nil
	}
}

func tomlScalar(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", errors.New("value must be a string or a list of strings")
	}
}

// JSONSchema describes the accepted forms for schema generation.
func (StringOrList) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "number"},
			{Type: "boolean"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}
