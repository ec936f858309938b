package storage

import (
	"fmt"
	"strings"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
)

// Dialect captures the few points where backends disagree on DDL: the SQL
// type for a logical field and the clause appended to foreign-key
// constraints (postgres defers them so intra-batch self references work;
// sqlite defers inside the transaction instead).
type Dialect struct {
	TypeFor  func(f catalog.Field) string
	FKSuffix string
}

// CreateTableSQL renders the CREATE TABLE statement for one entity: columns
// in declaration order with NOT NULL where the field is non-nullable, the
// (possibly composite) primary key, and one FOREIGN KEY clause per declared
// edge. Table and column names come straight from the registry.
func CreateTableSQL(e catalog.Entity, d Dialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", e.Name)

	for _, f := range e.Fields {
		fmt.Fprintf(&b, "    %s %s", f.Name, d.TypeFor(f))
		if !f.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}

	fmt.Fprintf(&b, "    PRIMARY KEY (%s)", strings.Join(e.PrimaryKey, ", "))
	for _, fk := range e.ForeignKeys {
		fmt.Fprintf(&b, ",\n    FOREIGN KEY (%s) REFERENCES %s (%s)%s",
			fk.Field, fk.RefEntity, fk.RefField, d.FKSuffix)
	}
	b.WriteString("\n)")
	return b.String()
}

// DropTableSQL renders the idempotent drop for one entity.
func DropTableSQL(e catalog.Entity) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", e.Name)
}

// InsertSQL renders a single-row parameterized INSERT. The placeholder
// function receives the 1-based parameter position ("?" for sqlite, "$1"
// style for postgres).
func InsertSQL(e catalog.Entity, placeholder func(i int) string) string {
	cols := e.Columns()
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		e.Name, strings.Join(cols, ", "), strings.Join(ph, ", "))
}
