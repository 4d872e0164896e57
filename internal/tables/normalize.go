package tables

import (
	"fmt"
	"strings"
)

// Normalize turns a raw grid into headers and rows. The first row with a
// non-blank cell becomes the headers (trimmed, blanks kept as ""); every
// later row becomes a data row with blank cells set to nil. A grid with no
// non-blank row yields empty headers and rows. Ragged grids are rejected.
func Normalize(grid [][]string) ([]string, [][]*string, error) {
	for i, row := range grid {
		if len(row) != len(grid[0]) {
			return nil, nil, fmt.Errorf("%w: row %d has %d cells, expected %d",
				ErrMalformedRegion, i, len(row), len(grid[0]))
		}
	}

	header := -1
	for i, row := range grid {
		if !blankRow(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return []string{}, [][]*string{}, nil
	}

	headers := make([]string, len(grid[header]))
	for j, s := range grid[header] {
		headers[j] = strings.TrimSpace(s)
	}
	rows := make([][]*string, 0, len(grid)-header-1)
	for _, raw := range grid[header+1:] {
		row := make([]*string, len(raw))
		for j, s := range raw {
			row[j] = Cell(s)
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// NewTable normalizes grid into a table addressed by (page, index).
func NewTable(page, index int, grid [][]string) (Table, error) {
	headers, rows, err := Normalize(grid)
	if err != nil {
		return Table{}, err
	}
	return Table{Page: page, TableIndex: index, Headers: headers, Rows: rows}, nil
}

// Grid renders a table back into raw strings, header row first, nil cells
// as "". Normalize(t.Grid()) reproduces t for any normalized t whose
// headers are not all blank.
func (t Table) Grid() [][]string {
	var grid [][]string
	if len(t.Headers) > 0 {
		grid = append(grid, append([]string(nil), t.Headers...))
	}
	for _, row := range t.Rows {
		out := make([]string, len(row))
		for j, c := range row {
			if c != nil {
				out[j] = *c
			}
		}
		grid = append(grid, out)
	}
	return grid
}

func blankRow(row []string) bool {
	for _, s := range row {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
