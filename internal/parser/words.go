package parser

import (
	"math"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// glyph is one positioned character run in top-left page coordinates.
type glyph struct {
	text  string
	space bool
	box   doctree.BBox
}

// glyphsFrom converts positioned text from the PDF reader. The ascent is
// taken as 0.8 of the font size above the baseline.
func glyphsFrom(items []lpdf.Text, box pageBox) []glyph {
	out := make([]glyph, 0, len(items))
	for _, t := range items {
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		x0, top := box.toPage(t.X, t.Y+0.8*size)
		s := norm.NFC.String(t.S)
		out = append(out, glyph{
			text:  s,
			space: strings.TrimSpace(s) == "",
			box:   doctree.BBox{X0: x0, Y0: top, X1: x0 + math.Max(t.W, 0), Y1: top + size},
		})
	}
	return out
}

// mergeWords joins glyphs into word fragments. Glyphs whose bottoms lie
// within lineTol share a line; a space glyph or a horizontal gap wider
// than gap starts a new word.
func mergeWords(glyphs []glyph, gap, lineTol float64) []doctree.Fragment {
	if len(glyphs) == 0 {
		return nil
	}
	idx := make([]int, len(glyphs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return glyphs[idx[i]].box.Y1 < glyphs[idx[j]].box.Y1
	})

	var lines [][]int
	var cur []int
	var ref float64
	for _, gi := range idx {
		y := glyphs[gi].box.Y1
		if len(cur) > 0 && math.Abs(y-ref) > lineTol {
			lines = append(lines, cur)
			cur = nil
		}
		if len(cur) == 0 {
			ref = y
		}
		cur = append(cur, gi)
	}
	lines = append(lines, cur)

	var out []doctree.Fragment
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return glyphs[line[i]].box.X0 < glyphs[line[j]].box.X0
		})
		var sb strings.Builder
		var wbox doctree.BBox
		flush := func() {
			if sb.Len() > 0 {
				out = append(out, doctree.Fragment{Text: sb.String(), BBox: wbox})
			}
			sb.Reset()
		}
		for _, gi := range line {
			g := glyphs[gi]
			if g.space {
				flush()
				continue
			}
			if sb.Len() > 0 && g.box.X0-wbox.X1 > gap {
				flush()
			}
			if sb.Len() == 0 {
				wbox = g.box
			} else {
				wbox = wbox.Union(g.box)
			}
			sb.WriteString(g.text)
		}
		flush()
	}
	return out
}
