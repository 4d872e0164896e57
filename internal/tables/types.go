package tables

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// ErrMalformedRegion marks a region that cannot be turned into a
// rectangular grid. The region is skipped; it is never a document error.
var ErrMalformedRegion = errors.New("malformed table region")

// Table is one extracted table. Every row has len(Headers) cells when
// Headers is non-empty; a cell is either a non-blank string or nil.
type Table struct {
	Page       int         `json:"page"`
	TableIndex int         `json:"table_index"`
	Headers    []string    `json:"headers"`
	Rows       [][]*string `json:"rows"`
}

type tableJSON Table

// MarshalJSON writes empty headers and rows as [] rather than null. Cell
// text is not HTML-escaped here; an outer encoder applies its own setting.
func (t Table) MarshalJSON() ([]byte, error) {
	if t.Headers == nil {
		t.Headers = []string{}
	}
	if t.Rows == nil {
		t.Rows = [][]*string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tableJSON(t)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Find returns the table addressed by (page, tableIndex).
func Find(ts []Table, page, tableIndex int) (Table, bool) {
	for _, t := range ts {
		if t.Page == page && t.TableIndex == tableIndex {
			return t, true
		}
	}
	return Table{}, false
}

// Cell trims s and returns nil when nothing is left.
func Cell(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Strategy identifies how a region was detected. Strategies are tried in
// the order of strategyOrder and the first one that finds anything wins.
type Strategy int

const (
	StrategyLines Strategy = iota
	StrategyText
)

var strategyOrder = []Strategy{StrategyLines, StrategyText}

func (s Strategy) String() string {
	switch s {
	case StrategyLines:
		return "lines"
	case StrategyText:
		return "text"
	}
	return "unknown"
}

// Region is a candidate table rectangle on one page. The index slices
// point into the page arena that produced it.
type Region struct {
	BBox     doctree.BBox
	Strategy Strategy

	rulings []int     // page ruling indexes (StrategyLines)
	lines   []int     // arena text line indexes (StrategyText)
	anchors []float64 // column left edges, ascending (StrategyText)
}

// Config holds the geometric tolerances, in page units.
type Config struct {
	IntersectionTolerance float64 // max gap between rulings that still touch
	SnapTolerance         float64 // boundary positions closer than this merge
	TextTolerance         float64 // fragments this close vertically share a line
	MinTextRows           int     // shortest aligned run that counts as a table
	PageWorkers           int     // pages processed concurrently per document
}

func DefaultConfig() Config {
	return Config{
		IntersectionTolerance: 2,
		SnapTolerance:         3,
		TextTolerance:         3,
		MinTextRows:           2,
		PageWorkers:           4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IntersectionTolerance <= 0 {
		c.IntersectionTolerance = d.IntersectionTolerance
	}
	if c.SnapTolerance <= 0 {
		c.SnapTolerance = d.SnapTolerance
	}
	if c.TextTolerance <= 0 {
		c.TextTolerance = d.TextTolerance
	}
	if c.MinTextRows <= 0 {
		c.MinTextRows = d.MinTextRows
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = d.PageWorkers
	}
	return c
}
