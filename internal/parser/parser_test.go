package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/tablegest/internal/doctree"
)

func onlyPage(t *testing.T, doc *doctree.Document) *doctree.Page {
	t.Helper()
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Number != 1 {
		t.Errorf("expected page number 1, got %d", doc.Pages[0].Number)
	}
	return doc.Pages[0]
}

func TestForFile(t *testing.T) {
	cases := map[string]string{
		"report.PDF":  "*parser.PDFParser",
		"page.htm":    "*parser.HTMLParser",
		"notes.md":    "*parser.MarkdownParser",
		"sheet.csv":   "*parser.CSVParser",
		"letter.docx": "*parser.DOCXParser",
		"dump.txt":    "*parser.TextParser",
	}
	for name, want := range cases {
		p, err := ForFile(name, Options{})
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if got := reflect.TypeOf(p).String(); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
	if _, err := ForFile("image.png", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("expected .zip to be unsupported")
	}
}

func TestCSVParser_PadsRows(t *testing.T) {
	input := "name,qty\napple,3\npear\n"
	doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "fruit.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "fruit" {
		t.Errorf("expected title %q, got %q", "fruit", doc.Title)
	}
	page := onlyPage(t, doc)
	if len(page.Grids) != 1 {
		t.Fatalf("expected 1 grid, got %d", len(page.Grids))
	}
	want := [][]string{{"name", "qty"}, {"apple", "3"}, {"pear", ""}}
	if !reflect.DeepEqual(page.Grids[0], want) {
		t.Errorf("expected %q, got %q", want, page.Grids[0])
	}
}

func TestCSVParser_Empty(t *testing.T) {
	doc, err := (&CSVParser{}).Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page := onlyPage(t, doc); len(page.Grids) != 0 {
		t.Errorf("expected no grids, got %d", len(page.Grids))
	}
}

func TestHTMLParser_Tables(t *testing.T) {
	input := `<html><head><title>Quarterly</title></head><body>
<p>Intro</p>
<table>
  <thead><tr><th>Region</th><th colspan="2">Sales</th></tr></thead>
  <tbody>
    <tr><td>North</td><td>10</td><td>12</td></tr>
    <tr><td>South<br>East</td><td>  7 </td></tr>
  </tbody>
</table>
<table><tr><td>only</td></tr></table>
<script>var x = "<table>";</script>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "q.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Quarterly" {
		t.Errorf("expected title %q, got %q", "Quarterly", doc.Title)
	}
	page := onlyPage(t, doc)
	if len(page.Grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(page.Grids))
	}
	want := [][]string{
		{"Region", "Sales", ""},
		{"North", "10", "12"},
		{"South\nEast", "7", ""},
	}
	if !reflect.DeepEqual(page.Grids[0], want) {
		t.Errorf("expected %q, got %q", want, page.Grids[0])
	}
	if !reflect.DeepEqual(page.Grids[1], [][]string{{"only"}}) {
		t.Errorf("unexpected second grid %q", page.Grids[1])
	}
}

func TestHTMLParser_NestedTableIsSeparate(t *testing.T) {
	input := `<table><tr><td>outer<table><tr><td>inner</td></tr></table></td><td>x</td></tr></table>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "n.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := onlyPage(t, doc)
	if len(page.Grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(page.Grids))
	}
	if !reflect.DeepEqual(page.Grids[0], [][]string{{"outer", "x"}}) {
		t.Errorf("unexpected outer grid %q", page.Grids[0])
	}
	if !reflect.DeepEqual(page.Grids[1], [][]string{{"inner"}}) {
		t.Errorf("unexpected inner grid %q", page.Grids[1])
	}
}

func TestMarkdownParser_PipeTables(t *testing.T) {
	input := "# Price list\n\nSome prose.\n\n" +
		"| Item | Price |\n" +
		"|------|------:|\n" +
		"| **Pen** | `1.50` |\n" +
		"| Ink |  |\n\n" +
		"## Other\n\n" +
		"| a | b |\n|---|---|\n| 1 | 2 |\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "prices.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Price list" {
		t.Errorf("expected title %q, got %q", "Price list", doc.Title)
	}
	page := onlyPage(t, doc)
	if len(page.Grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(page.Grids))
	}
	want := [][]string{{"Item", "Price"}, {"Pen", "1.50"}, {"Ink", ""}}
	if !reflect.DeepEqual(page.Grids[0], want) {
		t.Errorf("expected %q, got %q", want, page.Grids[0])
	}
	if !reflect.DeepEqual(page.Grids[1], [][]string{{"a", "b"}, {"1", "2"}}) {
		t.Errorf("unexpected second grid %q", page.Grids[1])
	}
}

func TestTextParser_Layout(t *testing.T) {
	input := "Inventory\n" +
		"Item      Qty\n" +
		"Red apple 3\n" +
		"\fPage two\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "inv.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	first := doc.Pages[0]
	var words []string
	for _, f := range first.Fragments {
		words = append(words, f.Text)
	}
	want := []string{"Inventory", "Item", "Qty", "Red", "apple", "3"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("expected %q, got %q", want, words)
	}
	qty := first.Fragments[2]
	if qty.BBox.X0 != 10*textCharWidth || qty.BBox.Y0 != textLineHeight {
		t.Errorf("expected Qty at (60,12), got (%v,%v)", qty.BBox.X0, qty.BBox.Y0)
	}
	three := first.Fragments[5]
	if three.BBox.X0 != qty.BBox.X0 {
		t.Errorf("expected 3 aligned with Qty, got x=%v", three.BBox.X0)
	}

	second := doc.Pages[1]
	if second.Number != 2 || len(second.Fragments) != 2 || second.Fragments[0].BBox.Y0 != 0 {
		t.Errorf("unexpected second page %+v", second)
	}
}

func TestPDFParser_Junk(t *testing.T) {
	_, err := (&PDFParser{}).Parse(strings.NewReader("not a pdf"), "junk.pdf")
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}
