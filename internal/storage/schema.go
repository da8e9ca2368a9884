package storage

import (
	"fmt"
	"strings"
)

// ColumnType is the declared type of a schema column. Flags and counters
// are numbers; everything else is a length-limited string.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeNumber ColumnType = "number"
)

// Column describes one field of an entity table: its SQL name, declared
// type, size limit (max length for strings, max value for numbers), whether
// it may be absent, and an optional foreign-key target table.
type Column struct {
	Name       string
	Type       ColumnType
	Limit      int64
	Nullable   bool
	References string
}

// Table is the closed schema descriptor of one entity type. Columns always
// start with the injected id and clientId pair; Quota caps the per-tenant
// row count. Table and column names are compiled in and never derived from
// caller input, so interpolating them into SQL is safe.
type Table struct {
	Name    string
	Quota   int
	Columns []Column
}

// NewTable builds a descriptor, injecting the id and clientId columns ahead
// of the entity-specific extras.
func NewTable(name string, quota int, extras ...Column) Table {
	cols := make([]Column, 0, len(extras)+2)
	cols = append(cols,
		Column{Name: "id", Type: TypeString, Limit: IDLength},
		Column{Name: "clientId", Type: TypeString, Limit: IDLength},
	)
	cols = append(cols, extras...)
	return Table{Name: name, Quota: quota, Columns: cols}
}

// columnNames returns all column names in declaration order.
func (t Table) columnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// hasColumn guards dynamic filter columns against anything outside the
// descriptor.
func (t Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// CreateSQL derives the table-creation statement from the descriptor: id
// becomes the primary key, reference columns become cascade foreign keys.
// Cascade delete is the only referential-integrity mechanism in the engine.
func (t Table) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns)+2)
	var fks []string
	for _, c := range t.Columns {
		switch {
		case c.Name == "id":
			defs = append(defs, fmt.Sprintf("id VARCHAR(%d) PRIMARY KEY NOT NULL", c.Limit))
		case c.Type == TypeString:
			null := " NOT NULL"
			if c.Nullable {
				null = ""
			}
			defs = append(defs, fmt.Sprintf("%s VARCHAR(%d)%s", c.Name, c.Limit, null))
		default:
			null := " NOT NULL"
			if c.Nullable {
				null = " NULL"
			}
			defs = append(defs, fmt.Sprintf("%s INTEGER%s", c.Name, null))
		}
		if c.References != "" {
			fks = append(fks, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (id) ON DELETE CASCADE", c.Name, c.References))
		}
	}
	defs = append(defs, fks...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

// validate checks one record's values, aligned with the descriptor columns,
// against the declared types and limits. The clientId column is skipped: the
// store stamps it itself. Values must be string, *string or int64.
func (t Table) validate(values []any) error {
	for i, c := range t.Columns {
		if c.Name == "clientId" {
			continue
		}
		v := values[i]
		if p, ok := v.(*string); ok {
			if p == nil {
				v = nil
			} else {
				v = *p
			}
		}
		if v == nil {
			if c.Nullable {
				continue
			}
			return validationErr(t.Name, "value for %s is missing", c.Name)
		}
		switch c.Type {
		case TypeString:
			s, ok := v.(string)
			if !ok {
				return validationErr(t.Name, "value for %s is %T but should be a string", c.Name, v)
			}
			if int64(len(s)) > c.Limit {
				return validationErr(t.Name, "value for %s is too long, max length is %d", c.Name, c.Limit)
			}
		case TypeNumber:
			n, ok := v.(int64)
			if !ok {
				return validationErr(t.Name, "value for %s is %T but should be a number", c.Name, v)
			}
			if n < 0 {
				return validationErr(t.Name, "value for %s is negative", c.Name)
			}
			if n > c.Limit {
				return validationErr(t.Name, "value for %s is too large, max value is %d", c.Name, c.Limit)
			}
		}
	}
	return nil
}
