package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/dgallion1/tablegest/internal/tables"
)

const (
	pdfMargin   = 12.0
	pdfLineH    = 5.0
	pdfFontSize = 9.0
)

// WritePDF lays every table out as a bordered grid on landscape A4 pages.
// Text goes through the cp1252 translator of the core Helvetica font, so
// runes outside that code page are dropped.
func WritePDF(w io.Writer, title string, ts []tables.Table) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetCreator("tablegest", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	if len(ts) == 0 {
		pdf.SetFont("Helvetica", "I", pdfFontSize)
		pdf.CellFormat(0, pdfLineH, "No tables found.", "", 1, "L", false, 0, "")
	}
	for _, t := range ts {
		pdfTable(pdf, tr, t)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfTable(pdf *gofpdf.Fpdf, tr func(string) string, t tables.Table) {
	pageW, pageH := pdf.GetPageSize()
	bottom := pageH - pdfMargin

	if _, y := pdf.GetXY(); y+3*pdfLineH > bottom {
		pdf.AddPage()
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, sectionTitle(t), "", 1, "L", false, 0, "")

	grid := paddedGrid(t)
	if len(grid) == 0 {
		pdf.SetFont("Helvetica", "I", pdfFontSize)
		pdf.CellFormat(0, pdfLineH, "Empty table.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}
	colW := (pageW - 2*pdfMargin) / float64(len(grid[0]))
	pdf.SetFillColor(230, 230, 230)

	for i, row := range grid {
		header := i == 0
		style := ""
		if header {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, pdfFontSize)

		cells := make([]string, len(row))
		lines := 1
		for j, c := range row {
			cells[j] = tr(c)
			if n := len(pdf.SplitLines([]byte(cells[j]), colW)); n > lines {
				lines = n
			}
		}
		rowH := float64(lines) * pdfLineH

		_, y := pdf.GetXY()
		if y+rowH > bottom {
			pdf.AddPage()
			_, y = pdf.GetXY()
		}
		for j, c := range cells {
			x := pdfMargin + float64(j)*colW
			if header {
				pdf.Rect(x, y, colW, rowH, "FD")
			} else {
				pdf.Rect(x, y, colW, rowH, "D")
			}
			pdf.SetXY(x, y)
			pdf.MultiCell(colW, pdfLineH, c, "", "L", false)
		}
		pdf.SetXY(pdfMargin, y+rowH)
	}
	pdf.Ln(4)
}
