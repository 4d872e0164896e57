// Package export renders extracted tables into downloadable formats.
// Every writer is a pure function of the table slice.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/tablegest/internal/tables"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatZIP      Format = "zip"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// Bundles are the formats that hold every table of a document in one file.
var Bundles = []Format{FormatZIP, FormatMarkdown, FormatHTML, FormatPDF, FormatDOCX}

var contentTypes = map[Format]string{
	FormatJSON:     "application/json",
	FormatCSV:      "text/csv; charset=utf-8",
	FormatZIP:      "application/zip",
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatHTML:     "text/html; charset=utf-8",
	FormatPDF:      "application/pdf",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ParseFormat accepts a format name or file extension, case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if f == "markdown" {
		f = FormatMarkdown
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("unknown export format %q", s)
	}
	return f, nil
}

func (f Format) ContentType() string {
	return contentTypes[f]
}

// Write renders ts in format f. CSV output holds the first table only;
// use FormatZIP for one CSV per table.
func Write(w io.Writer, f Format, title string, ts []tables.Table) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, ts)
	case FormatCSV:
		if len(ts) == 0 {
			return nil
		}
		return WriteCSV(w, ts[0])
	case FormatZIP:
		return WriteZIP(w, ts)
	case FormatMarkdown:
		return WriteMarkdown(w, title, ts)
	case FormatHTML:
		return WriteHTML(w, title, ts)
	case FormatPDF:
		return WritePDF(w, title, ts)
	case FormatDOCX:
		return WriteDOCX(w, title, ts)
	}
	return fmt.Errorf("unknown export format %q", f)
}

func sectionTitle(t tables.Table) string {
	return fmt.Sprintf("Page %d, table %d", t.Page, t.TableIndex)
}

// width is the column count of t, taken from headers or the widest row.
func width(t tables.Table) int {
	n := len(t.Headers)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// paddedGrid is t.Grid() with every row widened to width(t); a table
// without headers gets a blank header row so bundled formats can always
// draw one.
func paddedGrid(t tables.Table) [][]string {
	n := width(t)
	grid := t.Grid()
	if len(t.Headers) == 0 && n > 0 {
		grid = append([][]string{make([]string, n)}, grid...)
	}
	for i, row := range grid {
		for len(row) < n {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid
}
