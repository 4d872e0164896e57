package tables

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// band is a half-open interval [lo, hi) along one axis.
type band struct {
	lo, hi float64
}

// cell collects the fragments whose centers fall in one row/column band
// pair.
type cell struct {
	frags []int
}

// bandsFrom turns sorted boundaries into consecutive bands.
func bandsFrom(bounds []float64) []band {
	if len(bounds) < 2 {
		return nil
	}
	out := make([]band, 0, len(bounds)-1)
	for i := 1; i < len(bounds); i++ {
		out = append(out, band{lo: bounds[i-1], hi: bounds[i]})
	}
	return out
}

// locate returns the band containing v, or -1. The last band is closed on
// the right so a center sitting on the outer border is kept.
func locate(bands []band, v float64) int {
	for i, b := range bands {
		if v >= b.lo && (v < b.hi || (i == len(bands)-1 && v <= b.hi)) {
			return i
		}
	}
	return -1
}

// segment cuts a region into a rectangular grid of raw cell strings.
func (a *pageArena) segment(r Region) ([][]string, error) {
	var rows, cols []band
	switch r.Strategy {
	case StrategyLines:
		rows, cols = a.rulingBands(r)
	case StrategyText:
		rows, cols = a.alignmentBands(r)
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s region at (%.1f, %.1f) has %d row and %d column bands",
			ErrMalformedRegion, r.Strategy, r.BBox.X0, r.BBox.Y0, len(rows), len(cols))
	}

	cells := make([][]cell, len(rows))
	for i := range cells {
		cells[i] = make([]cell, len(cols))
	}
	for fi, f := range a.page.Fragments {
		cx, cy := f.BBox.CenterX(), f.BBox.CenterY()
		ri, ci := locate(rows, cy), locate(cols, cx)
		if ri < 0 || ci < 0 {
			continue
		}
		cells[ri][ci].frags = append(cells[ri][ci].frags, fi)
	}

	grid := make([][]string, len(rows))
	for i := range cells {
		grid[i] = make([]string, len(cols))
		for j, c := range cells[i] {
			grid[i][j] = a.cellText(c)
		}
	}
	return grid, nil
}

// rulingBands uses the clustered positions of the region's horizontal
// rulings as row boundaries and of its vertical rulings as column
// boundaries.
func (a *pageArena) rulingBands(r Region) (rows, cols []band) {
	var ys, xs []float64
	for _, i := range r.rulings {
		ru := a.page.Rulings[i]
		if ru.Orientation == doctree.Horizontal {
			ys = append(ys, ru.Position())
		} else {
			xs = append(xs, ru.Position())
		}
	}
	snap := a.cfg.SnapTolerance
	return bandsFrom(clusterPositions(ys, snap)), bandsFrom(clusterPositions(xs, snap))
}

// alignmentBands gives one row band per text line, split at the middle of
// the gap between neighbouring lines, and one column band per anchor.
func (a *pageArena) alignmentBands(r Region) (rows, cols []band) {
	if len(r.lines) == 0 || len(r.anchors) < 2 {
		return nil, nil
	}
	tol := a.cfg.TextTolerance
	snap := a.cfg.SnapTolerance

	first := a.lines[r.lines[0]].bbox
	ys := []float64{first.Y0 - tol}
	for k := 1; k < len(r.lines); k++ {
		prev, next := a.lines[r.lines[k-1]].bbox, a.lines[r.lines[k]].bbox
		mid := (prev.Y1 + next.Y0) / 2
		if prev.Y1 > next.Y0 {
			mid = (prev.CenterY() + next.CenterY()) / 2
		}
		ys = append(ys, mid)
	}
	last := a.lines[r.lines[len(r.lines)-1]].bbox
	ys = append(ys, last.Y1+tol)

	xs := make([]float64, 0, len(r.anchors)+1)
	for i, ax := range r.anchors {
		if i == 0 {
			ax = math.Min(ax, r.BBox.X0)
		}
		xs = append(xs, ax-snap)
	}
	xs = append(xs, r.BBox.X1+snap)

	return bandsFrom(ys), bandsFrom(xs)
}

// cellText joins a cell's fragments in reading order: fragments on one
// line with " ", lines with "\n".
func (a *pageArena) cellText(c cell) string {
	if len(c.frags) == 0 {
		return ""
	}
	lines := a.groupLines(c.frags)
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		words := make([]string, 0, len(line))
		for _, fi := range line {
			if s := strings.TrimSpace(a.fragment(fi).Text); s != "" {
				words = append(words, s)
			}
		}
		if len(words) > 0 {
			parts = append(parts, strings.Join(words, " "))
		}
	}
	return strings.Join(parts, "\n")
}
