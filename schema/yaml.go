package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fieldDocument is the YAML document shape for field definitions.
//
//	fields:
//	  name:
//	    label: Name
//	    type: char
//	  company:
//	    label: Company
//	    type: many2one
//	    relation:
//	      name: {label: Name, type: char}
type fieldDocument struct {
	Fields map[string]Field `yaml:"fields"`
}

// ParseYAML decodes a field-definition document. Types are normalized;
// a definition with a type outside the canonical set is rejected with
// an UnknownTypeError.
func ParseYAML(data []byte) (map[string]Field, error) {
	var doc fieldDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	if err := validateFields(doc.Fields, ""); err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

// LoadFile reads and parses a field-definition YAML file.
func LoadFile(path string) (map[string]Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return ParseYAML(data)
}

func validateFields(fields map[string]Field, parent string) error {
	for name, f := range fields {
		path := name
		if parent != "" {
			path = parent + "." + name
		}
		if f.Type != "" && !f.Type.Normalize().Valid() {
			return &UnknownTypeError{Field: path, Type: f.Type}
		}
		if err := validateFields(f.Relation, path); err != nil {
			return err
		}
	}
	return nil
}
