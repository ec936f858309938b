package normalize

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
)

/*
collect runs Stream to completion over the input and returns all rows. The
consumer goroutine keeps the channel drained so Stream never blocks.
*/
func collect(tb testing.TB, e catalog.Entity, input string) ([][]any, error) {
	tb.Helper()
	out := make(chan []any, 64)
	done := make(chan [][]any, 1)
	go func() {
		var rows [][]any
		for r := range out {
			rows = append(rows, r)
		}
		done <- rows
	}()
	err := Stream(context.Background(), strings.NewReader(input), e, out)
	close(out)
	return <-done, err
}

func mustEntity(tb testing.TB, name string) catalog.Entity {
	tb.Helper()
	e, ok := catalog.ByName(name)
	if !ok {
		tb.Fatalf("entity %q not in registry", name)
	}
	return e
}

// TestStreamColorsRoundTrip is the canonical fixture: two color rows come out
// typed (int64, string, string, bool) with no nulls.
func TestStreamColorsRoundTrip(t *testing.T) {
	t.Parallel()

	input := "id,name,rgb,is_trans\n" +
		"1,Black,05131D,f\n" +
		"9999,Trans-Clear,FCFCFC,t\n"

	rows, err := collect(t, mustEntity(t, "colors"), input)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	want := [][]any{
		{int64(1), "Black", "05131D", false},
		{int64(9999), "Trans-Clear", "FCFCFC", true},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestStreamStripsBOM(t *testing.T) {
	t.Parallel()

	input := "\ufeffid,name\n1,Technic\n"
	rows, err := collect(t, mustEntity(t, "part_categories"), input)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != int64(1) || rows[0][1] != "Technic" {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestStreamNullHandling(t *testing.T) {
	t.Parallel()

	t.Run("nullable field accepts empty and NaN", func(t *testing.T) {
		t.Parallel()
		input := "id,name,parent_id\n1,Technic,\n2,Arctic,NaN\n3,City,1\n"
		rows, err := collect(t, mustEntity(t, "themes"), input)
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		if rows[0][2] != nil || rows[1][2] != nil {
			t.Fatalf("expected nil parent_id, got %#v and %#v", rows[0][2], rows[1][2])
		}
		if rows[2][2] != int64(1) {
			t.Fatalf("parent_id = %#v, want 1", rows[2][2])
		}
	})

	t.Run("non-nullable field rejects empty", func(t *testing.T) {
		t.Parallel()
		input := "id,name\n1,\n"
		_, err := collect(t, mustEntity(t, "part_categories"), input)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
		if verr.Entity != "part_categories" || verr.Field != "name" || verr.Line != 2 {
			t.Fatalf("error context = %+v", verr)
		}
	})

	t.Run("non-nullable field rejects NaN", func(t *testing.T) {
		t.Parallel()
		input := "id,name\nNaN,Technic\n"
		_, err := collect(t, mustEntity(t, "part_categories"), input)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %v", err)
		}
		if verr.Field != "id" {
			t.Fatalf("field = %q, want id", verr.Field)
		}
	})
}

func TestStreamCoercionFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		entity string
		input  string
		field  string
	}{
		{
			name:   "non-integer",
			entity: "part_categories",
			input:  "id,name\nabc,Technic\n",
			field:  "id",
		},
		{
			name:   "unrecognized boolean",
			entity: "colors",
			input:  "id,name,rgb,is_trans\n1,Black,05131D,maybe\n",
			field:  "is_trans",
		},
		{
			name:   "text over max length",
			entity: "colors",
			input:  "id,name,rgb,is_trans\n1,Black,05131DFF,f\n",
			field:  "rgb",
		},
		{
			name:   "unknown rel_type code",
			entity: "part_relationships",
			input:  "rel_type,child_part_num,parent_part_num\nX,3001,3002\n",
			field:  "rel_type",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := collect(t, mustEntity(t, tc.entity), tc.input)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
			if verr.Line != 2 {
				t.Fatalf("line = %d, want 2", verr.Line)
			}
		})
	}
}

func TestStreamRelTypeCodesAccepted(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("rel_type,child_part_num,parent_part_num\n")
	for _, code := range catalog.RelTypes {
		b.WriteString(code + ",3001,3002\n")
	}
	rows, err := collect(t, mustEntity(t, "part_relationships"), b.String())
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(rows) != len(catalog.RelTypes) {
		t.Fatalf("rows = %d, want %d", len(rows), len(catalog.RelTypes))
	}
}

// TestStreamElementIDStaysText pins the element_id transform: values keep
// their text form, and float spellings from upstream tooling reduce to plain
// integer text.
func TestStreamElementIDStaysText(t *testing.T) {
	t.Parallel()

	input := "element_id,part_num,color_id\n" +
		"423224,3001,1\n" +
		"6134102.0,3002,5\n"

	rows, err := collect(t, mustEntity(t, "elements"), input)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if rows[0][0] != "423224" {
		t.Fatalf("element_id = %#v, want string \"423224\"", rows[0][0])
	}
	if rows[1][0] != "6134102" {
		t.Fatalf("element_id = %#v, want string \"6134102\"", rows[1][0])
	}
}

func TestStreamHeaderMismatch(t *testing.T) {
	t.Parallel()

	input := "id,label\n1,Technic\n"
	_, err := collect(t, mustEntity(t, "part_categories"), input)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != "name" || !strings.Contains(verr.Reason, "missing from header") {
		t.Fatalf("unexpected error: %+v", verr)
	}
}

// Extra source columns are tolerated; only declared fields are read.
func TestStreamIgnoresExtraColumns(t *testing.T) {
	t.Parallel()

	input := "part_num,name,part_cat_id,part_material\n3001,Brick 2 x 4,11,Plastic\n"
	rows, err := collect(t, mustEntity(t, "parts"), input)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	want := []any{"3001", "Brick 2 x 4", int64(11)}
	if !reflect.DeepEqual(rows[0], want) {
		t.Fatalf("row = %#v, want %#v", rows[0], want)
	}
}

func TestStreamQuotedCommaValues(t *testing.T) {
	t.Parallel()

	input := "id,name\n1,\"Bricks, Special\"\n"
	rows, err := collect(t, mustEntity(t, "part_categories"), input)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if rows[0][1] != "Bricks, Special" {
		t.Fatalf("name = %#v", rows[0][1])
	}
}
