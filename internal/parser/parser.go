package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// ErrUnreadable means the input cannot supply page geometry or text. It is
// a document-level failure.
var ErrUnreadable = errors.New("document unreadable")

// Parser converts raw document bytes into pages of extraction primitives.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune the geometric parsers.
type Options struct {
	// RulingTolerance is the thickest filled rectangle still read as a
	// ruling line, and the largest off-axis drift of a stroked segment.
	RulingTolerance float64
	// WordGap splits glyphs into separate fragments when the horizontal
	// gap between them exceeds it.
	WordGap float64
	// LineTolerance groups glyphs with baselines this close into a line.
	LineTolerance float64
}

func (o Options) withDefaults() Options {
	if o.RulingTolerance <= 0 {
		o.RulingTolerance = 2
	}
	if o.WordGap <= 0 {
		o.WordGap = 3
	}
	if o.LineTolerance <= 0 {
		o.LineTolerance = 3
	}
	return o
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".txt":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	opts = opts.withDefaults()
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{Options: opts}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func baseTitle(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// gridPage wraps natively structured tables as page 1. Rows are padded to
// the widest row so every grid is rectangular.
func gridPage(grids [][][]string) *doctree.Page {
	page := &doctree.Page{Number: 1}
	for _, g := range grids {
		if len(g) == 0 {
			continue
		}
		page.Grids = append(page.Grids, padGrid(g))
	}
	return page
}

func padGrid(g [][]string) [][]string {
	width := 0
	for _, row := range g {
		width = max(width, len(row))
	}
	out := make([][]string, len(g))
	for i, row := range g {
		if len(row) == width {
			out[i] = row
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
