package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// CSVParser reads a CSV file as a single table on page 1.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrUnreadable, err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}
	var grids [][][]string
	if len(records) > 0 {
		grids = append(grids, records)
	}
	doc.Pages = []*doctree.Page{gridPage(grids)}
	return doc, nil
}
