package cleanup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/tablegest/internal/tables"
)

var (
	// ErrNotArray means the response was valid JSON but not an array.
	ErrNotArray = errors.New("cleanup response is not a JSON array")
	// ErrMalformed means the response could not be read as tables.
	ErrMalformed = errors.New("cleanup response is malformed")
)

type wireTable struct {
	Page       *int                `json:"page"`
	TableIndex *int                `json:"table_index"`
	Headers    []*string           `json:"headers"`
	Rows       [][]json.RawMessage `json:"rows"`
}

// DecodeTables validates a cleanup response and converts it into tables.
// Each element must carry page >= 1, table_index >= 0, a headers array of
// strings and a rows array whose rows match the header width. Scalar cells
// are accepted as text; blank cells become nil.
func DecodeTables(raw []byte) ([]tables.Table, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid json: %s", ErrMalformed, truncate(string(raw), 200))
	}
	if raw[0] != '[' {
		return nil, ErrNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]tables.Table, 0, len(items))
	for i, item := range items {
		t, err := decodeTable(item)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformed, i, err)
		}
		out = append(out, t)
	}
	if err := uniqueAddresses(out); err != nil {
		return nil, err
	}
	return out, nil
}

// uniqueAddresses rejects two tables with the same (page, table_index).
func uniqueAddresses(ts []tables.Table) error {
	seen := make(map[[2]int]bool, len(ts))
	for i, t := range ts {
		key := [2]int{t.Page, t.TableIndex}
		if seen[key] {
			return fmt.Errorf("%w: element %d: duplicate table (%d, %d)", ErrMalformed, i, t.Page, t.TableIndex)
		}
		seen[key] = true
	}
	return nil
}

func decodeTable(item json.RawMessage) (tables.Table, error) {
	if len(item) == 0 || item[0] != '{' {
		return tables.Table{}, errors.New("not an object")
	}
	var w wireTable
	if err := json.Unmarshal(item, &w); err != nil {
		return tables.Table{}, err
	}
	switch {
	case w.Page == nil || w.TableIndex == nil:
		return tables.Table{}, errors.New("missing page or table_index")
	case *w.Page < 1:
		return tables.Table{}, fmt.Errorf("page %d out of range", *w.Page)
	case *w.TableIndex < 0:
		return tables.Table{}, fmt.Errorf("table_index %d out of range", *w.TableIndex)
	case w.Headers == nil || w.Rows == nil:
		return tables.Table{}, errors.New("missing headers or rows")
	}

	t := tables.Table{
		Page:       *w.Page,
		TableIndex: *w.TableIndex,
		Headers:    make([]string, len(w.Headers)),
		Rows:       make([][]*string, 0, len(w.Rows)),
	}
	for j, h := range w.Headers {
		if h == nil {
			return tables.Table{}, fmt.Errorf("header %d is null", j)
		}
		t.Headers[j] = strings.TrimSpace(*h)
	}
	for r, rawRow := range w.Rows {
		if len(t.Headers) > 0 && len(rawRow) != len(t.Headers) {
			return tables.Table{}, fmt.Errorf("row %d has %d cells, expected %d", r, len(rawRow), len(t.Headers))
		}
		row := make([]*string, len(rawRow))
		for c, cell := range rawRow {
			v, err := cellValue(cell)
			if err != nil {
				return tables.Table{}, fmt.Errorf("row %d cell %d: %v", r, c, err)
			}
			row[c] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cellValue accepts null, strings, numbers and booleans.
func cellValue(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty cell")
	}
	switch raw[0] {
	case 'n':
		return nil, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return tables.Cell(s), nil
	case '{', '[':
		return nil, errors.New("nested value")
	default:
		return tables.Cell(string(raw)), nil
	}
}
