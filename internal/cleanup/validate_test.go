package cleanup

import (
	"errors"
	"testing"
)

func TestDecodeTables_NotArray(t *testing.T) {
	for _, body := range []string{`{"a":1}`, `"text"`, `42`, `null`} {
		if _, err := DecodeTables([]byte(body)); !errors.Is(err, ErrNotArray) {
			t.Errorf("%s: expected ErrNotArray, got %v", body, err)
		}
	}
}

func TestDecodeTables_Malformed(t *testing.T) {
	bodies := []string{
		``,
		`[1, 2`,
		`[1]`,
		`[{"page":1,"table_index":-1,"headers":[],"rows":[]}]`,
		`[{"page":1,"table_index":0,"headers":["a",null],"rows":[]}]`,
		`[{"page":1,"table_index":0,"headers":[1],"rows":[]}]`,
		`[{"page":1,"table_index":0,"headers":["a"]}]`,
	}
	for _, body := range bodies {
		if _, err := DecodeTables([]byte(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("%q: expected ErrMalformed, got %v", body, err)
		}
	}
}

func TestDecodeTables_HeaderlessRowsKeepWidth(t *testing.T) {
	ts, err := DecodeTables([]byte(`  [{"page":2,"table_index":1,"headers":[],"rows":[["a", true, 1.5, "  "]]}]  `))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := ts[0].Rows[0]
	if len(row) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(row))
	}
	if *row[0] != "a" || *row[1] != "true" || *row[2] != "1.5" || row[3] != nil {
		t.Errorf("unexpected row values")
	}
	if ts[0].Page != 2 || ts[0].TableIndex != 1 {
		t.Errorf("expected (2,1), got (%d,%d)", ts[0].Page, ts[0].TableIndex)
	}
}

func TestStripCodeBlock(t *testing.T) {
	cases := map[string]string{
		"```json\n[1]\n```": "[1]",
		"```\n[2]```":       "[2]",
		"  [3]  ":           "[3]",
	}
	for in, want := range cases {
		if got := stripCodeBlock(in); got != want {
			t.Errorf("stripCodeBlock(%q): expected %q, got %q", in, want, got)
		}
	}
}
