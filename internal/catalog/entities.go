package catalog

// Part relationship type codes as published in part_relationships.csv.
const (
	RelPrint     = "P"
	RelSubPart   = "B"
	RelMold      = "M"
	RelAlternate = "A"
	RelPair      = "R"
	RelPattern   = "T"
)

// RelTypes is the closed set of valid rel_type codes.
var RelTypes = []string{RelPrint, RelSubPart, RelMold, RelAlternate, RelPair, RelPattern}

// all lists every catalog entity. Declaration order is stable and is used as
// the tiebreak by the dependency orderer; the safe load order itself is
// always computed from the foreign keys, never assumed from this slice.
var all = []Entity{
	{
		Name:   "part_categories",
		Source: "part_categories.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeText, MaxLen: 200},
		},
		PrimaryKey: []string{"id"},
	},
	{
		Name:   "themes",
		Source: "themes.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeText, MaxLen: 256},
			{Name: "parent_id", Type: TypeInt, Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []ForeignKey{
			{Field: "parent_id", RefEntity: "themes", RefField: "id"},
		},
	},
	{
		Name:   "parts",
		Source: "parts.csv.gz",
		Fields: []Field{
			{Name: "part_num", Type: TypeText, MaxLen: 20},
			{Name: "name", Type: TypeText, MaxLen: 250},
			{Name: "part_cat_id", Type: TypeInt},
		},
		PrimaryKey: []string{"part_num"},
		ForeignKeys: []ForeignKey{
			{Field: "part_cat_id", RefEntity: "part_categories", RefField: "id"},
		},
	},
	{
		Name:   "colors",
		Source: "colors.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeText, MaxLen: 200},
			{Name: "rgb", Type: TypeText, MaxLen: 6},
			{Name: "is_trans", Type: TypeBool},
		},
		PrimaryKey: []string{"id"},
	},
	{
		Name:   "sets",
		Source: "sets.csv.gz",
		Fields: []Field{
			{Name: "set_num", Type: TypeText, MaxLen: 20},
			{Name: "name", Type: TypeText, MaxLen: 256},
			{Name: "year", Type: TypeInt},
			{Name: "theme_id", Type: TypeInt},
			{Name: "num_parts", Type: TypeInt},
		},
		PrimaryKey: []string{"set_num"},
		ForeignKeys: []ForeignKey{
			{Field: "theme_id", RefEntity: "themes", RefField: "id"},
		},
	},
	{
		Name:   "elements",
		Source: "elements.csv.gz",
		Fields: []Field{
			// element_id is an identifier, not a number; see TextID.
			{Name: "element_id", Type: TypeText, MaxLen: 10, Transform: TextID},
			{Name: "part_num", Type: TypeText, MaxLen: 20},
			{Name: "color_id", Type: TypeInt},
		},
		PrimaryKey: []string{"element_id"},
		ForeignKeys: []ForeignKey{
			{Field: "part_num", RefEntity: "parts", RefField: "part_num"},
			{Field: "color_id", RefEntity: "colors", RefField: "id"},
		},
	},
	{
		Name:   "minifigs",
		Source: "minifigs.csv.gz",
		Fields: []Field{
			{Name: "fig_num", Type: TypeText, MaxLen: 20},
			{Name: "name", Type: TypeText, MaxLen: 256},
			{Name: "num_parts", Type: TypeInt},
		},
		PrimaryKey: []string{"fig_num"},
	},
	{
		Name:   "inventories",
		Source: "inventories.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "version", Type: TypeInt},
			{Name: "set_num", Type: TypeText, MaxLen: 20},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []ForeignKey{
			{Field: "set_num", RefEntity: "sets", RefField: "set_num"},
		},
	},
	{
		Name:   "inventory_parts",
		Source: "inventory_parts.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "inventory_id", Type: TypeInt},
			{Name: "part_num", Type: TypeText, MaxLen: 20},
			{Name: "color_id", Type: TypeInt},
			{Name: "quantity", Type: TypeInt},
			{Name: "is_spare", Type: TypeBool},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []ForeignKey{
			{Field: "inventory_id", RefEntity: "inventories", RefField: "id"},
			{Field: "part_num", RefEntity: "parts", RefField: "part_num"},
			{Field: "color_id", RefEntity: "colors", RefField: "id"},
		},
	},
	{
		Name:   "inventory_minifigs",
		Source: "inventory_minifigs.csv.gz",
		Fields: []Field{
			{Name: "id", Type: TypeInt},
			{Name: "inventory_id", Type: TypeInt},
			{Name: "fig_num", Type: TypeText, MaxLen: 20},
			{Name: "quantity", Type: TypeInt},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []ForeignKey{
			{Field: "inventory_id", RefEntity: "inventories", RefField: "id"},
			{Field: "fig_num", RefEntity: "minifigs", RefField: "fig_num"},
		},
	},
	{
		Name:   "inventory_sets",
		Source: "inventory_sets.csv.gz",
		Fields: []Field{
			{Name: "inventory_id", Type: TypeInt},
			{Name: "set_num", Type: TypeText, MaxLen: 20},
			{Name: "quantity", Type: TypeInt},
		},
		PrimaryKey: []string{"inventory_id", "set_num"},
		ForeignKeys: []ForeignKey{
			{Field: "inventory_id", RefEntity: "inventories", RefField: "id"},
			{Field: "set_num", RefEntity: "sets", RefField: "set_num"},
		},
	},
	{
		Name:   "part_relationships",
		Source: "part_relationships.csv.gz",
		Fields: []Field{
			{Name: "rel_type", Type: TypeText, MaxLen: 1, Enum: RelTypes},
			{Name: "child_part_num", Type: TypeText, MaxLen: 20},
			{Name: "parent_part_num", Type: TypeText, MaxLen: 20},
		},
		PrimaryKey: []string{"rel_type", "child_part_num", "parent_part_num"},
		ForeignKeys: []ForeignKey{
			{Field: "child_part_num", RefEntity: "parts", RefField: "part_num"},
			{Field: "parent_part_num", RefEntity: "parts", RefField: "part_num"},
		},
	},
}

// All returns every entity definition. The returned slice is a copy; the
// definitions themselves are shared and must be treated as immutable.
func All() []Entity {
	out := make([]Entity, len(all))
	copy(out, all)
	return out
}

// ByName returns the entity definition with the given name.
func ByName(name string) (Entity, bool) {
	for _, e := range all {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}
