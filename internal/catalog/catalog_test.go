package catalog

import (
	"strings"
	"testing"
)

// TestRegistryIntegrity runs the structural check over the full registry:
// unique names, primary keys that exist, and foreign keys that point at real
// entities and fields.
func TestRegistryIntegrity(t *testing.T) {
	t.Parallel()

	if err := Check(All()); err != nil {
		t.Fatalf("registry check: %v", err)
	}
}

func TestCheckRejectsBrokenDefinitions(t *testing.T) {
	t.Parallel()

	base := Entity{
		Name:       "widgets",
		Fields:     []Field{{Name: "id", Type: TypeInt}},
		PrimaryKey: []string{"id"},
	}

	cases := []struct {
		name     string
		entities []Entity
		wantSub  string
	}{
		{
			name:     "duplicate entity",
			entities: []Entity{base, base},
			wantSub:  "duplicate entity",
		},
		{
			name: "missing primary key field",
			entities: []Entity{{
				Name:       "widgets",
				Fields:     []Field{{Name: "id", Type: TypeInt}},
				PrimaryKey: []string{"nope"},
			}},
			wantSub: "primary key field",
		},
		{
			name: "foreign key to unknown entity",
			entities: []Entity{{
				Name:        "widgets",
				Fields:      []Field{{Name: "id", Type: TypeInt}, {Name: "gadget_id", Type: TypeInt}},
				PrimaryKey:  []string{"id"},
				ForeignKeys: []ForeignKey{{Field: "gadget_id", RefEntity: "gadgets", RefField: "id"}},
			}},
			wantSub: "unknown entity",
		},
		{
			name: "foreign key to unknown field",
			entities: []Entity{base, {
				Name:        "orders",
				Fields:      []Field{{Name: "id", Type: TypeInt}, {Name: "widget_id", Type: TypeInt}},
				PrimaryKey:  []string{"id"},
				ForeignKeys: []ForeignKey{{Field: "widget_id", RefEntity: "widgets", RefField: "uuid"}},
			}},
			wantSub: "unknown field",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tc.entities)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantSub)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not contain %q", err, tc.wantSub)
			}
		})
	}
}

func TestEntityURL(t *testing.T) {
	t.Parallel()

	e, ok := ByName("colors")
	if !ok {
		t.Fatalf("colors not in registry")
	}
	if got, want := e.URL(""), DefaultBaseURL+"colors.csv.gz"; got != want {
		t.Fatalf("URL default base: got %q want %q", got, want)
	}
	if got, want := e.URL("http://mirror.test/dumps/"), "http://mirror.test/dumps/colors.csv.gz"; got != want {
		t.Fatalf("URL custom base: got %q want %q", got, want)
	}
}

// TestTextID pins the identifier canonicalization: numeric spellings reduce
// to plain integer text, everything else passes through untouched.
func TestTextID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"423224", "423224"},
		{"423224.0", "423224"},
		{"6134101.00", "6134101"},
		{"3626bpr0001", "3626bpr0001"},
		{"", ""},
		{"1.5", "1.5"}, // not integral, left alone
	}
	for _, tc := range cases {
		got, err := TextID(tc.in)
		if err != nil {
			t.Fatalf("TextID(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("TextID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRelTypeCodes(t *testing.T) {
	t.Parallel()

	e, ok := ByName("part_relationships")
	if !ok {
		t.Fatalf("part_relationships not in registry")
	}
	f, ok := e.Field("rel_type")
	if !ok {
		t.Fatalf("rel_type field missing")
	}
	want := []string{"P", "B", "M", "A", "R", "T"}
	if len(f.Enum) != len(want) {
		t.Fatalf("rel_type enum = %v, want %v", f.Enum, want)
	}
	for i, code := range want {
		if f.Enum[i] != code {
			t.Fatalf("rel_type enum[%d] = %q, want %q", i, f.Enum[i], code)
		}
	}
}
