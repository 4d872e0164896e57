package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/tablegest/internal/tables"
)

// WriteDOCX writes a Word document with a heading paragraph and a table
// per extracted table. Each line of a cell is its own paragraph.
func WriteDOCX(w io.Writer, title string, ts []tables.Table) error {
	f := docx.New().WithDefaultTheme().WithA4Page()
	if title != "" {
		f.AddParagraph().AddText(title).Bold().Size("32")
	}
	if len(ts) == 0 {
		f.AddParagraph().AddText("No tables found.")
	}
	for _, t := range ts {
		f.AddParagraph().AddText(sectionTitle(t)).Bold().Size("26")
		grid := paddedGrid(t)
		if len(grid) == 0 {
			f.AddParagraph().AddText("Empty table.")
			continue
		}
		tbl := f.AddTable(len(grid), len(grid[0]), 0, nil)
		for i, row := range grid {
			for j, c := range row {
				cell := tbl.TableRows[i].TableCells[j]
				for _, line := range strings.Split(c, "\n") {
					run := cell.AddParagraph().AddText(line)
					if i == 0 {
						run.Bold()
					}
				}
			}
		}
		f.AddParagraph()
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
