package schema

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Field metadata keys understood by FromArrow.
const (
	// MetadataLabel overrides the label derived from the column name.
	MetadataLabel = "label"
	// MetadataSearchable set to "false" excludes the column.
	MetadataSearchable = "searchable"
	// MetadataSelection lists selection options as "key:Label" pairs
	// joined by ";". The column then imports as a selection field.
	MetadataSelection = "selection"
)

// FromArrow derives field definitions from an Arrow schema. Column names
// become storage names; labels come from the "label" metadata key or are
// derived from the name ("unit_price" -> "Unit Price"). Columns with
// types outside the searchable set are skipped.
func FromArrow(s *arrow.Schema) map[string]Field {
	if s == nil {
		return nil
	}
	fields := make(map[string]Field, s.NumFields())
	for i := 0; i < s.NumFields(); i++ {
		af := s.Field(i)
		ft, ok := fieldTypeFromArrow(af.Type)
		if !ok {
			continue
		}
		f := Field{
			Label: labelFromName(af.Name),
			Type:  ft,
		}
		if md := af.Metadata; md.Len() > 0 {
			if idx := md.FindKey(MetadataLabel); idx >= 0 && md.Values()[idx] != "" {
				f.Label = md.Values()[idx]
			}
			if idx := md.FindKey(MetadataSearchable); idx >= 0 && md.Values()[idx] == "false" {
				searchable := false
				f.Searchable = &searchable
			}
			if idx := md.FindKey(MetadataSelection); idx >= 0 {
				f.Selection = parseSelectionMetadata(md.Values()[idx])
				if len(f.Selection) > 0 {
					f.Type = TypeSelection
				}
			}
		}
		fields[af.Name] = f
	}
	return fields
}

// fieldTypeFromArrow maps an Arrow data type onto the searchable field
// types. Nested and binary types do not map.
func fieldTypeFromArrow(dt arrow.DataType) (FieldType, bool) {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return TypeChar, true
	case arrow.BOOL:
		return TypeBoolean, true
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return TypeInteger, true
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return TypeFloat, true
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return TypeNumeric, true
	case arrow.DATE32, arrow.DATE64:
		return TypeDate, true
	case arrow.TIMESTAMP:
		return TypeDateTime, true
	case arrow.TIME32, arrow.TIME64:
		return TypeTime, true
	case arrow.DICTIONARY:
		if dict, ok := dt.(*arrow.DictionaryType); ok {
			return fieldTypeFromArrow(dict.ValueType)
		}
	}
	return "", false
}

// parseSelectionMetadata decodes "draft:Draft;open:Open" into options.
// Pairs without a colon use the key as label.
func parseSelectionMetadata(value string) []SelectionOption {
	var opts []SelectionOption
	for _, pair := range strings.Split(value, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, label, found := strings.Cut(pair, ":")
		if !found {
			label = key
		}
		opts = append(opts, SelectionOption{Key: key, Label: label})
	}
	return opts
}

// labelFromName turns a storage name into a display label:
// "unit_price" -> "Unit Price".
func labelFromName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '.'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
