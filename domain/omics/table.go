package omics

import (
	"fmt"

	"regact/domain/core"
)

// Column is one named column of a network annotation table. Exactly one of
// Strings or Numbers is populated, depending on the column's type.
type Column struct {
	Name    string
	Strings []string
	Numbers []float64
}

func (c Column) length() int {
	if c.Strings != nil {
		return len(c.Strings)
	}
	return len(c.Numbers)
}

// Table is a columnar network annotation table with caller-defined column
// names. A ColumnMap resolves the logical roles (source, target, weight,
// likelihood) onto these physical columns.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns, validating that names are unique and
// non-empty and that every column has the same length.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, col := range cols {
		if col.Name == "" {
			return nil, core.NewSchemaError("", "column has no name")
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, core.NewSchemaError(col.Name, "duplicate column")
		}
		if col.Strings != nil && col.Numbers != nil {
			return nil, core.NewSchemaError(col.Name, "column has both string and numeric data")
		}
		if i == 0 {
			t.rows = col.length()
		} else if col.length() != t.rows {
			return nil, core.NewSchemaError(col.Name,
				fmt.Sprintf("%d rows, expected %d", col.length(), t.rows))
		}
		t.index[col.Name] = i
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Rows returns the number of rows in the table.
func (t *Table) Rows() int { return t.rows }

// ColumnNames returns the physical column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// StringColumn returns the string data of a column, or false when the column
// is absent or numeric.
func (t *Table) StringColumn(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok || t.columns[i].Strings == nil {
		return nil, false
	}
	return t.columns[i].Strings, true
}

// NumberColumn returns the numeric data of a column, or false when the column
// is absent or non-numeric.
func (t *Table) NumberColumn(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok || t.columns[i].Numbers == nil {
		return nil, false
	}
	return t.columns[i].Numbers, true
}

// ColumnMap maps the logical network roles onto physical column names.
// Zero-valued fields fall back to the conventional names.
type ColumnMap struct {
	Source     string `json:"source,omitempty"`
	Target     string `json:"target,omitempty"`
	Weight     string `json:"weight,omitempty"`
	Likelihood string `json:"likelihood,omitempty"`
}

// DefaultColumnMap returns the conventional column naming.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Source:     "source",
		Target:     "target",
		Weight:     "weight",
		Likelihood: "likelihood",
	}
}

// WithDefaults fills unset roles with the conventional names.
func (c ColumnMap) WithDefaults() ColumnMap {
	def := DefaultColumnMap()
	if c.Source == "" {
		c.Source = def.Source
	}
	if c.Target == "" {
		c.Target = def.Target
	}
	if c.Weight == "" {
		c.Weight = def.Weight
	}
	if c.Likelihood == "" {
		c.Likelihood = def.Likelihood
	}
	return c
}
