package tables

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNormalize_HeaderAndBlankCells(t *testing.T) {
	headers, rows, err := Normalize([][]string{
		{"Name", "Age"},
		{"Ana", "30"},
		{"", ""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(headers, []string{"Name", "Age"}) {
		t.Errorf("expected headers [Name Age], got %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if cellString(rows[0][0]) != "Ana" || cellString(rows[0][1]) != "30" {
		t.Errorf("expected [Ana 30], got [%s %s]", cellString(rows[0][0]), cellString(rows[0][1]))
	}
	if rows[1][0] != nil || rows[1][1] != nil {
		t.Errorf("expected blank row to be [nil nil], got [%s %s]", cellString(rows[1][0]), cellString(rows[1][1]))
	}
}

func TestNormalize_SkipsLeadingBlankRows(t *testing.T) {
	headers, rows, err := Normalize([][]string{
		{" ", ""},
		{"  Item ", ""},
		{"pen", "  "},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(headers, []string{"Item", ""}) {
		t.Errorf("expected headers [Item \"\"], got %q", headers)
	}
	if len(rows) != 1 || cellString(rows[0][0]) != "pen" || rows[0][1] != nil {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	for _, g := range [][][]string{nil, {{"", " "}, {"\t", ""}}} {
		headers, rows, err := Normalize(g)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if headers == nil || rows == nil {
			t.Fatal("expected non-nil empty slices")
		}
		if len(headers) != 0 || len(rows) != 0 {
			t.Errorf("expected empty table, got headers=%v rows=%v", headers, rows)
		}
	}
}

func TestNormalize_RejectsRagged(t *testing.T) {
	_, _, err := Normalize([][]string{{"a", "b"}, {"c"}})
	if !errors.Is(err, ErrMalformedRegion) {
		t.Errorf("expected ErrMalformedRegion, got %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first, err := NewTable(1, 0, [][]string{
		{"", ""},
		{"Region", " Total "},
		{"North", ""},
		{"", "12"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewTable(1, 0, first.Grid())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected normalization to be stable\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestTable_MarshalJSON(t *testing.T) {
	empty, err := json.Marshal(Table{Page: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"page":1,"table_index":0,"headers":[],"rows":[]}`
	if string(empty) != want {
		t.Errorf("expected %s, got %s", want, empty)
	}

	tbl, _ := NewTable(2, 1, [][]string{{"Name", "Age"}, {"Ana", ""}})
	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want = `{"page":2,"table_index":1,"headers":["Name","Age"],"rows":[["Ana",null]]}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestTable_MarshalJSONLeavesHTMLToEncoder(t *testing.T) {
	tbl, _ := NewTable(1, 0, [][]string{{"<b>&</b>"}, {"x"}})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]Table{tbl}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"<b>&</b>"`) {
		t.Errorf("expected unescaped html, got %s", buf.String())
	}

	escaped, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(escaped), `\u003cb\u003e`) {
		t.Errorf("expected json.Marshal to escape html, got %s", escaped)
	}
}

func TestFind(t *testing.T) {
	ts := []Table{{Page: 1, TableIndex: 0}, {Page: 2, TableIndex: 0}, {Page: 2, TableIndex: 1, Headers: []string{"x"}}}
	got, ok := Find(ts, 2, 1)
	if !ok || len(got.Headers) != 1 {
		t.Errorf("expected to find (2,1), got %+v ok=%v", got, ok)
	}
	if _, ok := Find(ts, 3, 0); ok {
		t.Error("expected (3,0) to be missing")
	}
}
