// Package normalize turns a decompressed CSV stream into typed rows that
// match an entity definition.
//
// The stream is parsed with a header row, null markers are normalized, each
// cell is coerced to its declared type, field transforms from the definition
// are applied, and nullability plus bounds are enforced. A row that cannot be
// normalized stops the stream with a *ValidationError naming the entity, the
// line, and the offending field; invalid rows are never silently dropped or
// substituted.
package normalize

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/fidoriel/rebrickable-sqlite-orm/internal/catalog"
)

// ValidationError reports a row that fails schema coercion or a non-null
// constraint. Line is the physical CSV line, with the header at line 1.
type ValidationError struct {
	Entity string
	Line   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("normalize: %s line %d: %s", e.Entity, e.Line, e.Reason)
	}
	return fmt.Sprintf("normalize: %s line %d: field %q: %s", e.Entity, e.Line, e.Field, e.Reason)
}

// Null markers as emitted by the upstream tabular tooling: an empty cell or
// a literal NaN.
func isNullMarker(s string) bool { return s == "" || s == "NaN" }

// Boolean spellings accepted during coercion, lowercased.
var (
	truthy = map[string]struct{}{
		"1": {}, "t": {}, "true": {}, "yes": {}, "y": {},
	}
	falsy = map[string]struct{}{
		"0": {}, "f": {}, "false": {}, "no": {}, "n": {},
	}
)

// Stream parses r as headered CSV for entity e and sends one typed row per
// data record on out. Row values are aligned to e.Fields order; nil encodes
// NULL. The channel is not closed by Stream; the caller owns it.
//
// The first error (CSV syntax, header mismatch, or row validation) terminates
// the stream and is returned. A nil return means the input was drained.
func Stream(ctx context.Context, r io.Reader, e catalog.Entity, out chan<- []any) error {
	// Tolerate a UTF-8 BOM in front of the header.
	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	hdr, err := read()
	if err != nil {
		return &ValidationError{Entity: e.Name, Line: line, Reason: fmt.Sprintf("read header: %v", err)}
	}
	srcIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		srcIdx[h] = i
	}

	// Build dest→source mapping. Every declared field must be present in the
	// header; extra source columns are ignored.
	colIx := make([]int, len(e.Fields))
	for i, f := range e.Fields {
		si, ok := srcIdx[f.Name]
		if !ok {
			return &ValidationError{Entity: e.Name, Line: line, Field: f.Name, Reason: "column missing from header"}
		}
		colIx[i] = si
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ValidationError{Entity: e.Name, Line: line, Reason: fmt.Sprintf("csv read: %v", err)}
		}

		row := make([]any, len(e.Fields))
		for i, f := range e.Fields {
			si := colIx[i]
			if si >= len(rec) {
				return &ValidationError{Entity: e.Name, Line: line, Field: f.Name, Reason: "row too short"}
			}
			v, verr := normalizeCell(rec[si], f)
			if verr != nil {
				return &ValidationError{Entity: e.Name, Line: line, Field: f.Name, Reason: verr.Error()}
			}
			row[i] = v
		}

		select {
		case out <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// normalizeCell applies null normalization, the field transform, type
// coercion, and constraint checks to a single raw cell.
func normalizeCell(raw string, f catalog.Field) (any, error) {
	if isNullMarker(raw) {
		if !f.Nullable {
			return nil, fmt.Errorf("null value for non-nullable field")
		}
		return nil, nil
	}

	if f.Transform != nil {
		t, err := f.Transform(raw)
		if err != nil {
			return nil, err
		}
		raw = t
	}

	switch f.Type {
	case catalog.TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil

	case catalog.TypeBool:
		s := strings.ToLower(raw)
		if _, ok := truthy[s]; ok {
			return true, nil
		}
		if _, ok := falsy[s]; ok {
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a recognized boolean", raw)

	case catalog.TypeText:
		if f.MaxLen > 0 && utf8.RuneCountInString(raw) > f.MaxLen {
			return nil, fmt.Errorf("value exceeds %d characters", f.MaxLen)
		}
		if len(f.Enum) > 0 && !inEnum(raw, f.Enum) {
			return nil, fmt.Errorf("%q not in enum %v", raw, f.Enum)
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}
}

func inEnum(s string, enum []string) bool {
	for _, e := range enum {
		if s == e {
			return true
		}
	}
	return false
}
