package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/tablegest/internal/tables"
)

func s(v string) *string { return &v }

func sampleTables() []tables.Table {
	return []tables.Table{
		{
			Page:       1,
			TableIndex: 0,
			Headers:    []string{"Name", "Age"},
			Rows:       [][]*string{{s("Ana"), s("30")}, {s("Bo | Jr"), nil}},
		},
		{
			Page:       2,
			TableIndex: 1,
			Headers:    []string{"Note"},
			Rows:       [][]*string{{s("line one\nline two")}, {s("<b>&</b>")}},
		},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	in := sampleTables()[0]
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	out, err := tables.NewTable(in.Page, in.TableIndex, records)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestWriteCSV_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	in := tables.Table{Page: 1, Headers: []string{}, Rows: [][]*string{}}
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty csv, got %q", buf.String())
	}
}

func TestWriteCSV_NilCellsEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteCSV(&buf, sampleTables()[0])
	want := "Name,Age\nAna,30\nBo | Jr,\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteZIP(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteZIP(&buf, sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"page_1_table_0.csv", "page_2_table_1.csv"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}

	rc, err := zr.File[1].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !strings.HasPrefix(string(data), "Note\n\"line one\nline two\"\n") {
		t.Errorf("unexpected entry content %q", data)
	}
}

func TestWriteZIP_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteZIP(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("expected no entries, got %d", len(zr.File))
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"<b>&</b>"`) {
		t.Errorf("expected unescaped html in output, got %s", buf.String())
	}
	var back []tables.Table
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != 2 || back[0].Rows[1][1] != nil {
		t.Errorf("unexpected decoded tables %+v", back)
	}

	buf.Reset()
	WriteJSON(&buf, nil)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected [], got %q", buf.String())
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, "report", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# report\n",
		"## Page 1, table 0\n",
		"| Name | Age |\n| --- | --- |\n| Ana | 30 |\n| Bo \\| Jr |  |\n",
		"| line one<br>line two |",
		"| &lt;b&gt;&amp;&lt;/b&gt; |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWriteMarkdown_HeaderlessTable(t *testing.T) {
	var buf bytes.Buffer
	ts := []tables.Table{{Page: 1, Headers: []string{}, Rows: [][]*string{{s("x"), s("y")}}}}
	WriteMarkdown(&buf, "", ts)
	if !strings.Contains(buf.String(), "|  |  |\n| --- | --- |\n| x | y |\n") {
		t.Errorf("expected blank header row, got:\n%s", buf.String())
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, "a<b", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>a&lt;b</title>",
		"<table>",
		"<th>Name</th>",
		"<td>Ana</td>",
		"line one<br>line two",
		"&lt;b&gt;&amp;&lt;/b&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<b>&") {
		t.Error("cell html leaked into output")
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, "report", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("expected pdf header, got %q", buf.Bytes()[:8])
	}
}

func TestWritePDF_ManyRowsPaginates(t *testing.T) {
	tbl := tables.Table{Page: 1, Headers: []string{"N"}}
	for i := 0; i < 200; i++ {
		tbl.Rows = append(tbl.Rows, []*string{s("row")})
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, "", []tables.Table{tbl}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := bytes.Count(buf.Bytes(), []byte("/Type /Page\n")); n < 2 {
		t.Errorf("expected several pages, got %d", n)
	}
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, "report", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("parse docx: %v", err)
	}
	var count int
	for _, item := range d.Document.Body.Items {
		if tbl, ok := item.(*docx.Table); ok {
			count++
			if count == 2 && len(tbl.TableRows[1].TableCells[0].Paragraphs) != 2 {
				t.Errorf("expected two paragraphs for a two-line cell, got %d",
					len(tbl.TableRows[1].TableCells[0].Paragraphs))
			}
		}
	}
	if count != 2 {
		t.Errorf("expected 2 tables, got %d", count)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json": FormatJSON, ".ZIP": FormatZIP, "markdown": FormatMarkdown,
		"md": FormatMarkdown, "docx": FormatDOCX,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("expected error for unknown format")
	}
}
