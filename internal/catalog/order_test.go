package catalog

import (
	"errors"
	"reflect"
	"testing"
)

// TestOrderParentsFirst verifies the core ordering property over the full
// registry: every entity referenced by a foreign key appears before the
// entity that references it. Self references are exempt.
func TestOrderParentsFirst(t *testing.T) {
	t.Parallel()

	order, err := Order(All())
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(order) != len(All()) {
		t.Fatalf("order has %d entries, want %d", len(order), len(All()))
	}

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	for _, e := range All() {
		for _, fk := range e.ForeignKeys {
			if fk.RefEntity == e.Name {
				continue
			}
			if pos[fk.RefEntity] >= pos[e.Name] {
				t.Errorf("%s (pos %d) must load after %s (pos %d)",
					e.Name, pos[e.Name], fk.RefEntity, pos[fk.RefEntity])
			}
		}
	}
}

func TestOrderDeterministic(t *testing.T) {
	t.Parallel()

	a, err := Order(All())
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	b, err := Order(All())
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("order not deterministic:\n%v\n%v", a, b)
	}
}

// TestOrderSelfReferenceDoesNotBlock builds a lone self-referential entity;
// it must order fine on its own.
func TestOrderSelfReferenceDoesNotBlock(t *testing.T) {
	t.Parallel()

	ents := []Entity{{
		Name: "nodes",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "parent_id", Type: TypeInt, Nullable: true},
		},
		PrimaryKey:  []string{"id"},
		ForeignKeys: []ForeignKey{{Field: "parent_id", RefEntity: "nodes", RefField: "id"}},
	}}
	order, err := Order(ents)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(order) != 1 || order[0] != "nodes" {
		t.Fatalf("order = %v, want [nodes]", order)
	}
}

func TestOrderCycleFails(t *testing.T) {
	t.Parallel()

	ents := []Entity{
		{
			Name:        "a",
			Fields:      []Field{{Name: "id", Type: TypeInt}, {Name: "b_id", Type: TypeInt}},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{{Field: "b_id", RefEntity: "b", RefField: "id"}},
		},
		{
			Name:        "b",
			Fields:      []Field{{Name: "id", Type: TypeInt}, {Name: "a_id", Type: TypeInt}},
			PrimaryKey:  []string{"id"},
			ForeignKeys: []ForeignKey{{Field: "a_id", RefEntity: "a", RefField: "id"}},
		},
	}

	_, err := Order(ents)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if len(cycleErr.Entities) != 2 {
		t.Fatalf("cycle entities = %v, want both a and b", cycleErr.Entities)
	}
}
