package features

import (
	"sort"
	"strings"
)

// RawInput is a caller supplied form. Keys may differ in case from the
// schema; unknown keys are ignored.
type RawInput map[string]interface{}

// Lookup holds, per schema field, the matched raw value or an absent marker.
type Lookup struct {
	schema  *Schema
	values  []interface{}
	present []bool
}

// Normalize resolves every schema field against the input by case-folded
// exact key match. When several input keys fold to the same name the
// lexicographically smallest original key is used.
func Normalize(schema *Schema, input RawInput) Lookup {
	index := make(map[string]string, len(input))
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lower := strings.ToLower(k)
		if _, taken := index[lower]; !taken {
			index[lower] = k
		}
	}

	l := Lookup{
		schema:  schema,
		values:  make([]interface{}, len(schema.fields)),
		present: make([]bool, len(schema.fields)),
	}
	for i, f := range schema.fields {
		if original, ok := index[strings.ToLower(f.Name)]; ok {
			l.values[i] = input[original]
			l.present[i] = true
		}
	}
	return l
}

// Value returns the raw value for the i-th schema field.
func (l Lookup) Value(i int) (interface{}, bool) {
	return l.values[i], l.present[i]
}

// Missing lists absent fields in schema order.
func (l Lookup) Missing() []string {
	var out []string
	for i, ok := range l.present {
		if !ok {
			out = append(out, l.schema.fields[i].Name)
		}
	}
	return out
}
