package features

import (
	"errors"
	"fmt"
)

var ErrLayoutUnbound = errors.New("layout not bound to a schema")

// Diagnostic records a field that fell back to its default.
type Diagnostic struct {
	Field  string      `json:"field"`
	Reason string      `json:"reason"`
	Value  interface{} `json:"value,omitempty"`
}

type Diagnostics []Diagnostic

func (d Diagnostics) Fields() []string {
	out := make([]string, len(d))
	for i, diag := range d {
		out[i] = diag.Field
	}
	return out
}

// Defaulted returns the fields that were present but unusable, leaving out
// plain missing fields.
func (d Diagnostics) Defaulted() Diagnostics {
	var out Diagnostics
	for _, diag := range d {
		if diag.Reason != ReasonMissing {
			out = append(out, diag)
		}
	}
	return out
}

// Vector is the ordered classifier input.
type Vector struct {
	Columns []string
	Values  []float64
}

func (v Vector) Len() int { return len(v.Values) }

func (v Vector) Value(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Layout fixes the column order handed to a classifier. positions[i] is the
// schema column index emitted at vector position i.
type Layout struct {
	schema    *Schema
	columns   []string
	positions []int
}

// DefaultLayout emits columns in schema declaration order.
func (s *Schema) DefaultLayout() Layout {
	positions := make([]int, len(s.columns))
	for i := range positions {
		positions[i] = i
	}
	return Layout{schema: s, columns: s.Columns(), positions: positions}
}

// Layout binds the schema to an externally declared column order, typically
// the feature names stored with a trained model. Every schema column must
// appear exactly once.
func (s *Schema) Layout(columns []string) (Layout, error) {
	if len(columns) == 0 {
		return s.DefaultLayout(), nil
	}
	index := make(map[string]int, len(s.columns))
	for i, c := range s.columns {
		index[c] = i
	}
	if len(columns) != len(s.columns) {
		return Layout{}, fmt.Errorf("schema %s has %d columns, layout declares %d", s.variant, len(s.columns), len(columns))
	}
	seen := make(map[string]struct{}, len(columns))
	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := index[c]
		if !ok {
			return Layout{}, fmt.Errorf("schema %s has no column %q", s.variant, c)
		}
		if _, dup := seen[c]; dup {
			return Layout{}, fmt.Errorf("layout repeats column %q", c)
		}
		seen[c] = struct{}{}
		positions[i] = pos
	}
	return Layout{schema: s, columns: append([]string(nil), columns...), positions: positions}, nil
}

func (l Layout) Schema() *Schema { return l.schema }

func (l Layout) Columns() []string { return append([]string(nil), l.columns...) }

// Build assembles the vector for input in schema order.
func Build(schema *Schema, input RawInput) (Vector, Diagnostics, error) {
	return BuildLayout(schema.DefaultLayout(), input)
}

// BuildLayout runs normalization and coercion for every schema field and
// emits the values in layout order.
func BuildLayout(layout Layout, input RawInput) (Vector, Diagnostics, error) {
	if layout.schema == nil {
		return Vector{}, nil, ErrLayoutUnbound
	}
	schema := layout.schema
	lookup := Normalize(schema, input)

	ordered := make([]float64, 0, len(schema.columns))
	var diags Diagnostics
	for i, f := range schema.fields {
		raw, present := lookup.Value(i)
		res := Coerce(f, raw, present)
		if len(res.Values) != f.width() {
			return Vector{}, diags, fmt.Errorf("field %s produced %d values, want %d", f.Name, len(res.Values), f.width())
		}
		if res.UsedDefault {
			diags = append(diags, Diagnostic{Field: f.Name, Reason: res.Reason, Value: raw})
		}
		ordered = append(ordered, res.Values...)
	}
	if len(ordered) != len(schema.columns) {
		return Vector{}, diags, fmt.Errorf("schema %s: built %d values for %d columns", schema.variant, len(ordered), len(schema.columns))
	}

	values := make([]float64, len(layout.positions))
	for i, pos := range layout.positions {
		values[i] = ordered[pos]
	}
	return Vector{Columns: layout.Columns(), Values: values}, diags, nil
}
