package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// Layout of a plain-text page: every character occupies a fixed cell.
const (
	textCharWidth  = 6.0
	textLineHeight = 12.0
	textGlyphSize  = 10.0
	textTabStop    = 8
)

// TextParser lays fixed-width text out on a single page, one fragment per
// whitespace-separated word, so column-aligned reports are found by the
// text alignment strategy. A form feed starts a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &doctree.Document{Title: baseTitle(filename)}
	page := &doctree.Page{Number: 1}
	row, widest := 0, 0

	finish := func(rows int) {
		page.Width = float64(widest) * textCharWidth
		page.Height = float64(rows) * textLineHeight
		doc.Pages = append(doc.Pages, page)
	}

	for scanner.Scan() {
		line := scanner.Text()
		for {
			before, after, found := strings.Cut(line, "\f")
			cols := layoutLine(page, before, row)
			widest = max(widest, cols)
			if !found {
				break
			}
			finish(row + 1)
			page = &doctree.Page{Number: len(doc.Pages) + 1}
			row, widest = 0, 0
			line = after
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan text: %v", ErrUnreadable, err)
	}
	finish(row)
	return doc, nil
}

// layoutLine places the words of one line at the given row and returns the
// line width in columns.
func layoutLine(page *doctree.Page, line string, row int) int {
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "?")
	}
	y := float64(row) * textLineHeight
	col, start := 0, -1
	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		page.Fragments = append(page.Fragments, doctree.Fragment{
			Text: word.String(),
			BBox: doctree.BBox{
				X0: float64(start) * textCharWidth,
				Y0: y,
				X1: float64(col) * textCharWidth,
				Y1: y + textGlyphSize,
			},
		})
		word.Reset()
		start = -1
	}
	for _, r := range line {
		switch {
		case r == '\t':
			flush()
			col = (col/textTabStop + 1) * textTabStop
		case unicode.IsSpace(r):
			flush()
			col++
		default:
			if start < 0 {
				start = col
			}
			word.WriteRune(r)
			col++
		}
	}
	flush()
	return col
}
