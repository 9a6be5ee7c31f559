// Package features turns loosely structured form input into the ordered
// numeric vectors the risk classifiers were trained on.
package features

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	Numeric Kind = iota
	Boolean
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StandardTruthy are the string tokens every boolean field accepts as 1.
var StandardTruthy = []string{"yes", "true", "1"}

// Field declares one schema entry. Numeric and boolean fields produce a
// single column named Name; categorical fields produce one column per
// category named ColumnPrefix + "_" + category.
type Field struct {
	Name         string
	Kind         Kind
	Default      float64
	TruthyTokens []string
	Categories   []string
	ColumnPrefix string
}

func NumericField(name string, def float64) Field {
	return Field{Name: name, Kind: Numeric, Default: def}
}

// BooleanField accepts the standard truthy tokens plus any extra ones.
func BooleanField(name string, extraTruthy ...string) Field {
	tokens := make([]string, 0, len(StandardTruthy)+len(extraTruthy))
	tokens = append(tokens, StandardTruthy...)
	for _, t := range extraTruthy {
		tokens = append(tokens, strings.ToLower(t))
	}
	return Field{Name: name, Kind: Boolean, TruthyTokens: tokens}
}

func CategoricalField(name, prefix string, categories ...string) Field {
	return Field{Name: name, Kind: Categorical, ColumnPrefix: prefix, Categories: categories}
}

// Columns returns the classifier columns this field expands to, in order.
func (f Field) Columns() []string {
	if f.Kind != Categorical {
		return []string{f.Name}
	}
	cols := make([]string, len(f.Categories))
	for i, c := range f.Categories {
		cols[i] = f.ColumnPrefix + "_" + c
	}
	return cols
}

func (f Field) width() int {
	if f.Kind == Categorical {
		return len(f.Categories)
	}
	return 1
}

func (f Field) isTruthy(s string) bool {
	s = strings.ToLower(s)
	for _, t := range f.TruthyTokens {
		if s == t {
			return true
		}
	}
	return false
}

// Schema is an immutable, ordered list of fields for one predictor variant.
type Schema struct {
	variant string
	fields  []Field
	columns []string
}

func NewSchema(variant string, fields ...Field) (*Schema, error) {
	if variant == "" {
		return nil, errors.New("schema variant required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s has no fields", variant)
	}

	names := make(map[string]struct{}, len(fields))
	seenCols := make(map[string]struct{})
	s := &Schema{variant: variant, fields: make([]Field, len(fields))}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has no name", variant, i)
		}
		key := strings.ToLower(f.Name)
		if _, dup := names[key]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %s", variant, f.Name)
		}
		names[key] = struct{}{}

		if f.Kind == Categorical {
			if len(f.Categories) == 0 {
				return nil, fmt.Errorf("schema %s: categorical field %s has no categories", variant, f.Name)
			}
			if f.ColumnPrefix == "" {
				f.ColumnPrefix = f.Name
			}
			f.Categories = append([]string(nil), f.Categories...)
		}
		if f.Kind == Boolean && len(f.TruthyTokens) == 0 {
			f.TruthyTokens = append([]string(nil), StandardTruthy...)
		}

		for _, col := range f.Columns() {
			if _, dup := seenCols[col]; dup {
				return nil, fmt.Errorf("schema %s: duplicate column %s", variant, col)
			}
			seenCols[col] = struct{}{}
			s.columns = append(s.columns, col)
		}
		s.fields[i] = f
	}
	return s, nil
}

func MustSchema(variant string, fields ...Field) *Schema {
	s, err := NewSchema(variant, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Variant() string { return s.variant }

// Len is the number of classifier columns, not the number of fields.
func (s *Schema) Len() int { return len(s.columns) }

func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Field finds a field by name, ignoring case.
func (s *Schema) Field(name string) (Field, bool) {
	key := strings.ToLower(name)
	for _, f := range s.fields {
		if strings.ToLower(f.Name) == key {
			return f, true
		}
	}
	return Field{}, false
}
