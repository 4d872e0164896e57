package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/tablegest/internal/tables"
)

// WriteMarkdown writes one GFM pipe table per extracted table, each under
// a "Page N, table I" heading.
func WriteMarkdown(w io.Writer, title string, ts []tables.Table) error {
	_, err := w.Write(markdown(title, ts))
	return err
}

func markdown(title string, ts []tables.Table) []byte {
	var b bytes.Buffer
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", mdEscape(title))
	}
	if len(ts) == 0 {
		b.WriteString("_No tables found._\n")
		return b.Bytes()
	}
	for i, t := range ts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(t))
		grid := paddedGrid(t)
		if len(grid) == 0 {
			b.WriteString("_Empty table._\n")
			continue
		}
		mdRow(&b, grid[0])
		b.WriteString("|")
		for range grid[0] {
			b.WriteString(" --- |")
		}
		b.WriteByte('\n')
		for _, row := range grid[1:] {
			mdRow(&b, row)
		}
	}
	return b.Bytes()
}

func mdRow(b *bytes.Buffer, row []string) {
	b.WriteString("|")
	for _, c := range row {
		b.WriteString(" ")
		b.WriteString(mdEscape(c))
		b.WriteString(" |")
	}
	b.WriteByte('\n')
}

// mdEscape makes cell text safe inside a pipe table. Line breaks become
// <br>; HTML specials become entities so raw HTML never reaches a renderer.
func mdEscape(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case '\r':
		case '\n':
			b.WriteString("<br>")
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\\', '|', '*', '_', '`', '[', ']', '~':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
