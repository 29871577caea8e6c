package searchql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/veldtlab/searchql/schema"
)

// ValueConverter turns raw value text into the typed value carried by a
// clause. Returning nil means the text holds no value of the field's
// type; the clause then compares against null.
type ValueConverter func(raw string, field schema.Field) any

// ValueFormatter renders a clause value back into expression text, the
// inverse of ValueConverter.
type ValueFormatter func(value any, field schema.Field) string

// layouts accepted by the default converter, most specific first.
var (
	datetimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}
	timeLayouts     = []string{"15:04:05", "15:04"}
	dateLayout      = "2006-01-02"
)

// DefaultConverter coerces values by field type: numbers parse to
// int64 or float64, booleans accept yes/no spellings, dates and times
// accept ISO layouts, and selection labels map onto their keys. Text
// and relation names pass through as-is. Input that does not parse,
// including an empty value on a non-text field, converts to nil.
func DefaultConverter(raw string, field schema.Field) any {
	switch field.Type {
	case schema.TypeInteger:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return int64(f)
		}
		return nil
	case schema.TypeFloat, schema.TypeNumeric:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return nil
	case schema.TypeBoolean:
		switch strings.ToLower(raw) {
		case "1", "t", "y", "yes", "true":
			return true
		case "0", "f", "n", "no", "false":
			return false
		}
		return nil
	case schema.TypeDate:
		if t, err := time.Parse(dateLayout, raw); err == nil {
			return t
		}
		return nil
	case schema.TypeDateTime:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
		return nil
	case schema.TypeTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
		return nil
	case schema.TypeSelection, schema.TypeMultiSelection:
		if raw == "" {
			return nil
		}
		return field.SelectionKey(raw)
	}
	return raw
}

// DefaultFormatter renders typed values back to text so that feeding
// the result through DefaultConverter yields the value again.
func DefaultFormatter(value any, field schema.Field) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if field.Type == schema.TypeSelection || field.Type == schema.TypeMultiSelection {
			return field.SelectionLabel(v)
		}
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		switch field.Type {
		case schema.TypeDate:
			return v.Format(dateLayout)
		case schema.TypeTime:
			return v.Format("15:04:05")
		}
		return v.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(value)
}
