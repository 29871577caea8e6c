// Package schema describes the fields a search expression can address:
// typed field descriptors, the immutable case-insensitive label registry
// the parser resolves against, loading from YAML documents and Arrow
// schemas, and live reload of definition files.
package schema

import (
	"fmt"
	"strings"
)

// FieldType identifies the data type of a searchable field.
type FieldType string

const (
	TypeChar           FieldType = "char"
	TypeText           FieldType = "text"
	TypeInteger        FieldType = "integer"
	TypeFloat          FieldType = "float"
	TypeNumeric        FieldType = "numeric"
	TypeBoolean        FieldType = "boolean"
	TypeDate           FieldType = "date"
	TypeDateTime       FieldType = "datetime"
	TypeTime           FieldType = "time"
	TypeSelection      FieldType = "selection"
	TypeMultiSelection FieldType = "multiselection"
	TypeManyToOne      FieldType = "many2one"
	TypeOneToMany      FieldType = "one2many"
	TypeManyToMany     FieldType = "many2many"
	TypeOneToOne       FieldType = "one2one"
	TypeReference      FieldType = "reference"
)

// fieldTypeMapping maps common external spellings to canonical types.
// YAML documents and Arrow metadata may use SQL-ish names.
var fieldTypeMapping = map[FieldType]FieldType{
	"varchar":    TypeChar,
	"string":     TypeChar,
	"int":        TypeInteger,
	"bigint":     TypeInteger,
	"biginteger": TypeInteger,
	"double":     TypeFloat,
	"real":       TypeFloat,
	"decimal":    TypeNumeric,
	"bool":       TypeBoolean,
	"timestamp":  TypeDateTime,
}

// Normalize returns the canonical FieldType for the given name.
func (t FieldType) Normalize() FieldType {
	if mapped, ok := fieldTypeMapping[t]; ok {
		return mapped
	}
	return t
}

// Valid reports whether the type is one of the canonical field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeChar, TypeText, TypeInteger, TypeFloat, TypeNumeric,
		TypeBoolean, TypeDate, TypeDateTime, TypeTime,
		TypeSelection, TypeMultiSelection,
		TypeManyToOne, TypeOneToMany, TypeManyToMany, TypeOneToOne,
		TypeReference:
		return true
	}
	return false
}

// IsRelational returns true if the type points at related records whose
// display name is searched instead of the field itself.
func (t FieldType) IsRelational() bool {
	switch t {
	case TypeManyToOne, TypeOneToMany, TypeManyToMany, TypeOneToOne:
		return true
	}
	return false
}

// IsOrdered returns true if the type supports range comparison, and with
// it the "A..B" range literal.
func (t FieldType) IsOrdered() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeNumeric, TypeDate, TypeDateTime, TypeTime:
		return true
	}
	return false
}

// IsTextual returns true if the type holds free text.
func (t FieldType) IsTextual() bool {
	switch t {
	case TypeChar, TypeText:
		return true
	}
	return false
}

// HasSelection returns true if the type carries (key, label) selection
// options.
func (t FieldType) HasSelection() bool {
	switch t {
	case TypeSelection, TypeMultiSelection, TypeReference:
		return true
	}
	return false
}

// IsTemporal returns true if the type is a date/time type.
func (t FieldType) IsTemporal() bool {
	switch t {
	case TypeDate, TypeDateTime, TypeTime:
		return true
	}
	return false
}

// SelectionOption is one (key, label) pair of a selection field. The key
// is the stored value; the label is what users type and see.
type SelectionOption struct {
	Key   string `yaml:"key" msgpack:"key" json:"key"`
	Label string `yaml:"label" msgpack:"label" json:"label"`
}

// Field describes a single searchable field.
type Field struct {
	// Name is the storage name. The registry fills it with the dotted
	// path for flattened relation fields ("company.name").
	Name string `yaml:"-" msgpack:"name" json:"name"`

	// Label is the human name users type in expressions. Lookup is
	// case-insensitive.
	Label string `yaml:"label" msgpack:"label" json:"label"`

	// Type of the field. Defaults to char when empty.
	Type FieldType `yaml:"type" msgpack:"type" json:"type"`

	// Searchable controls registration. Nil means true; fields marked
	// false are invisible to the parser and to completion.
	Searchable *bool `yaml:"searchable,omitempty" msgpack:"searchable,omitempty" json:"searchable,omitempty"`

	// Selection lists the options of selection, multiselection and
	// reference fields. For reference fields the labels name the
	// possible target models.
	Selection []SelectionOption `yaml:"selection,omitempty" msgpack:"selection,omitempty" json:"selection,omitempty"`

	// Relation holds the sub-descriptors of relational fields, keyed by
	// storage name. The registry flattens them into dotted paths.
	Relation map[string]Field `yaml:"relation,omitempty" msgpack:"relation,omitempty" json:"relation,omitempty"`
}

// IsSearchable reports whether the field takes part in lookup.
func (f Field) IsSearchable() bool {
	return f.Searchable == nil || *f.Searchable
}

// SelectionKey returns the key for a selection label, matching
// case-insensitively. Returns the input unchanged when no option
// matches, so already-keyed values pass through.
func (f Field) SelectionKey(label string) string {
	for _, opt := range f.Selection {
		if strings.EqualFold(opt.Label, label) {
			return opt.Key
		}
	}
	return label
}

// SelectionLabel returns the label for a selection key, or the key
// itself when unknown.
func (f Field) SelectionLabel(key string) string {
	for _, opt := range f.Selection {
		if opt.Key == key {
			return opt.Label
		}
	}
	return key
}

// UnknownTypeError indicates a field definition with a type outside the
// canonical set.
type UnknownTypeError struct {
	Field string
	Type  FieldType
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("schema: field %q has unknown type %q", e.Field, e.Type)
}
