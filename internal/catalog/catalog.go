// Package catalog is the static registry of Rebrickable catalog entities.
//
// Each entity is a declarative record: its destination table name, the file
// it is published under on the download CDN, an ordered field list with types
// and nullability, the primary key, and the foreign keys that link it to
// other entities. The rest of the pipeline (fetch, normalize, load) is
// generic and parameterized by these definitions; adding an entity means
// adding one definition here.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBaseURL is the root of the public Rebrickable download CDN.
const DefaultBaseURL = "https://cdn.rebrickable.com/media/downloads/"

// FieldType is the logical type of a field after normalization.
type FieldType string

const (
	TypeInt  FieldType = "integer"
	TypeText FieldType = "text"
	TypeBool FieldType = "boolean"
)

// Transform rewrites a raw (non-null) cell value before type coercion.
// It returns the canonical string form or an error when the value cannot
// be expressed in that form.
type Transform func(raw string) (string, error)

// Field describes one column of an entity.
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool

	// MaxLen bounds the rune length of text values; 0 means unbounded.
	MaxLen int

	// Enum, when non-empty, restricts the value to a closed set of codes.
	Enum []string

	// Transform, when set, is applied to the raw cell before coercion.
	Transform Transform
}

// ForeignKey declares that Field references RefField on the RefEntity table.
type ForeignKey struct {
	Field     string
	RefEntity string
	RefField  string
}

// Entity is one catalog entity definition.
type Entity struct {
	// Name is the destination table name, e.g. "part_categories".
	Name string

	// Source is the file name under the download CDN, e.g. "parts.csv.gz".
	Source string

	Fields      []Field
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// URL composes the full source locator for the entity. An empty base falls
// back to DefaultBaseURL.
func (e Entity) URL(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + e.Source
}

// Field returns the field definition with the given name.
func (e Entity) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the field names in declaration order.
func (e Entity) Columns() []string {
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Check verifies the structural integrity of a set of definitions: unique
// entity names, primary key fields that exist, and foreign keys that point
// at an existing field of an existing entity. A failure here is a modeling
// bug, not a runtime condition.
func Check(entities []Entity) error {
	byName := make(map[string]Entity, len(entities))
	for _, e := range entities {
		if e.Name == "" {
			return fmt.Errorf("catalog: entity with empty name")
		}
		if _, dup := byName[e.Name]; dup {
			return fmt.Errorf("catalog: duplicate entity %q", e.Name)
		}
		byName[e.Name] = e
	}
	for _, e := range entities {
		if len(e.PrimaryKey) == 0 {
			return fmt.Errorf("catalog: entity %q has no primary key", e.Name)
		}
		for _, pk := range e.PrimaryKey {
			if _, ok := e.Field(pk); !ok {
				return fmt.Errorf("catalog: entity %q: primary key field %q not defined", e.Name, pk)
			}
		}
		for _, fk := range e.ForeignKeys {
			if _, ok := e.Field(fk.Field); !ok {
				return fmt.Errorf("catalog: entity %q: foreign key field %q not defined", e.Name, fk.Field)
			}
			parent, ok := byName[fk.RefEntity]
			if !ok {
				return fmt.Errorf("catalog: entity %q: foreign key %q references unknown entity %q",
					e.Name, fk.Field, fk.RefEntity)
			}
			if _, ok := parent.Field(fk.RefField); !ok {
				return fmt.Errorf("catalog: entity %q: foreign key %q references unknown field %s.%s",
					e.Name, fk.Field, fk.RefEntity, fk.RefField)
			}
		}
	}
	return nil
}

// TextID canonicalizes identifier fields that are declared text but may
// arrive in a numeric spelling. Values that parse as an integral number are
// rendered in plain integer form ("423224.0" becomes "423224"); everything
// else passes through unchanged. Keeping these ids as text is deliberate:
// coercing them to numbers breaks key matching downstream.
func TextID(raw string) (string, error) {
	if raw == "" {
		return raw, nil
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return raw, nil
}
