package searchql

import (
	"reflect"
	"testing"
	"time"

	"github.com/veldtlab/searchql/schema"
)

func TestDefaultConverter(t *testing.T) {
	stateField := schema.Field{
		Type: schema.TypeSelection,
		Selection: []schema.SelectionOption{
			{Key: "draft", Label: "Draft"},
			{Key: "done", Label: "Done"},
		},
	}

	tests := []struct {
		name     string
		field    schema.Field
		raw      string
		expected any
	}{
		{"integer", schema.Field{Type: schema.TypeInteger}, "42", int64(42)},
		{"integer truncates a decimal", schema.Field{Type: schema.TypeInteger}, "42.9", int64(42)},
		{"integer rejects text", schema.Field{Type: schema.TypeInteger}, "abc", nil},
		{"float", schema.Field{Type: schema.TypeFloat}, "3.14", 3.14},
		{"numeric", schema.Field{Type: schema.TypeNumeric}, "3.5", 3.5},
		{"numeric rejects text", schema.Field{Type: schema.TypeNumeric}, "abc", nil},
		{"boolean true", schema.Field{Type: schema.TypeBoolean}, "true", true},
		{"boolean yes", schema.Field{Type: schema.TypeBoolean}, "yes", true},
		{"boolean t", schema.Field{Type: schema.TypeBoolean}, "t", true},
		{"boolean one", schema.Field{Type: schema.TypeBoolean}, "1", true},
		{"boolean case-insensitive", schema.Field{Type: schema.TypeBoolean}, "TRUE", true},
		{"boolean false", schema.Field{Type: schema.TypeBoolean}, "false", false},
		{"boolean no", schema.Field{Type: schema.TypeBoolean}, "No", false},
		{"boolean zero", schema.Field{Type: schema.TypeBoolean}, "0", false},
		{"boolean rejects other text", schema.Field{Type: schema.TypeBoolean}, "maybe", nil},
		{"date", schema.Field{Type: schema.TypeDate}, "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"date rejects other layouts", schema.Field{Type: schema.TypeDate}, "01.05.2024", nil},
		{"datetime", schema.Field{Type: schema.TypeDateTime}, "2024-05-01 13:45:30", time.Date(2024, 5, 1, 13, 45, 30, 0, time.UTC)},
		{"datetime with T", schema.Field{Type: schema.TypeDateTime}, "2024-05-01T13:45:30", time.Date(2024, 5, 1, 13, 45, 30, 0, time.UTC)},
		{"datetime without seconds", schema.Field{Type: schema.TypeDateTime}, "2024-05-01 13:45", time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC)},
		{"datetime accepts a bare date", schema.Field{Type: schema.TypeDateTime}, "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"time", schema.Field{Type: schema.TypeTime}, "13:45:30", time.Date(0, 1, 1, 13, 45, 30, 0, time.UTC)},
		{"time without seconds", schema.Field{Type: schema.TypeTime}, "13:45", time.Date(0, 1, 1, 13, 45, 0, 0, time.UTC)},
		{"selection label to key", stateField, "Draft", "draft"},
		{"selection label case-insensitive", stateField, "DRAFT", "draft"},
		{"selection keeps unknown text", stateField, "zzz", "zzz"},
		{"selection empty is null", stateField, "", nil},
		{"char passes through", schema.Field{Type: schema.TypeChar}, "hello", "hello"},
		{"char keeps empty text", schema.Field{Type: schema.TypeChar}, "", ""},
		{"relation name passes through", schema.Field{Type: schema.TypeMany2One}, "Acme", "Acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultConverter(tt.raw, tt.field)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %#v, got %#v", tt.expected, got)
			}
		})
	}
}

func TestDefaultFormatter(t *testing.T) {
	stateField := schema.Field{
		Type: schema.TypeSelection,
		Selection: []schema.SelectionOption{
			{Key: "draft", Label: "Draft"},
		},
	}

	tests := []struct {
		name     string
		field    schema.Field
		value    any
		expected string
	}{
		{"nil is empty", schema.Field{Type: schema.TypeChar}, nil, ""},
		{"plain text", schema.Field{Type: schema.TypeChar}, "John", "John"},
		{"selection key to label", stateField, "draft", "Draft"},
		{"selection keeps unknown key", stateField, "zzz", "zzz"},
		{"true", schema.Field{Type: schema.TypeBoolean}, true, "True"},
		{"false", schema.Field{Type: schema.TypeBoolean}, false, "False"},
		{"int", schema.Field{Type: schema.TypeInteger}, 7, "7"},
		{"int64", schema.Field{Type: schema.TypeInteger}, int64(42), "42"},
		{"float", schema.Field{Type: schema.TypeNumeric}, 3.5, "3.5"},
		{"date", schema.Field{Type: schema.TypeDate}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "2024-05-01"},
		{"time", schema.Field{Type: schema.TypeTime}, time.Date(0, 1, 1, 13, 45, 30, 0, time.UTC), "13:45:30"},
		{"datetime", schema.Field{Type: schema.TypeDateTime}, time.Date(2024, 5, 1, 13, 45, 30, 0, time.UTC), "2024-05-01 13:45:30"},
		{"anything else prints itself", schema.Field{Type: schema.TypeChar}, uint(9), "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultFormatter(tt.value, tt.field)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// The formatter must render values so the converter reads them back.
func TestConverterFormatterInverse(t *testing.T) {
	stateField := schema.Field{
		Type: schema.TypeSelection,
		Selection: []schema.SelectionOption{
			{Key: "draft", Label: "Draft"},
		},
	}

	tests := []struct {
		field schema.Field
		raw   string
	}{
		{schema.Field{Type: schema.TypeChar}, "John"},
		{schema.Field{Type: schema.TypeInteger}, "42"},
		{schema.Field{Type: schema.TypeNumeric}, "3.5"},
		{schema.Field{Type: schema.TypeBoolean}, "True"},
		{schema.Field{Type: schema.TypeDate}, "2024-05-01"},
		{schema.Field{Type: schema.TypeDateTime}, "2024-05-01 13:45:30"},
		{schema.Field{Type: schema.TypeTime}, "13:45:30"},
		{stateField, "Draft"},
	}

	for _, tt := range tests {
		converted := DefaultConverter(tt.raw, tt.field)
		if got := DefaultFormatter(converted, tt.field); got != tt.raw {
			t.Errorf("%s %q: round trip produced %q", tt.field.Type, tt.raw, got)
		}
	}
}
