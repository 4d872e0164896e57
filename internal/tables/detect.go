package tables

import (
	"math"
	"sort"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// detect runs the strategies in priority order and returns the regions of
// the first one that finds any, sorted top to bottom then left to right.
func (a *pageArena) detect() []Region {
	for _, s := range strategyOrder {
		regions := s.detect(a)
		if len(regions) == 0 {
			continue
		}
		sort.SliceStable(regions, func(i, j int) bool {
			bi, bj := regions[i].BBox, regions[j].BBox
			if bi.Y0 != bj.Y0 {
				return bi.Y0 < bj.Y0
			}
			return bi.X0 < bj.X0
		})
		return regions
	}
	return nil
}

func (s Strategy) detect(a *pageArena) []Region {
	switch s {
	case StrategyLines:
		return detectRulingGrids(a)
	case StrategyText:
		return detectAlignedText(a)
	}
	return nil
}

// detectRulingGrids clusters horizontal and vertical rulings that touch
// within IntersectionTolerance. Each cluster with at least two rulings in
// each orientation becomes a region.
func detectRulingGrids(a *pageArena) []Region {
	rulings := a.page.Rulings
	if len(rulings) < 4 {
		return nil
	}
	tol := a.cfg.IntersectionTolerance
	uf := newUnionFind(len(rulings))
	for i, h := range rulings {
		if h.Orientation != doctree.Horizontal {
			continue
		}
		for j, v := range rulings {
			if v.Orientation == doctree.Vertical && touches(h, v, tol) {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	var roots []int
	for i := range rulings {
		r := uf.find(i)
		if _, ok := members[r]; !ok {
			roots = append(roots, r)
		}
		members[r] = append(members[r], i)
	}

	var regions []Region
	for _, root := range roots {
		group := members[root]
		var horiz, vert int
		box := rulings[group[0]].BBox()
		for _, i := range group {
			if rulings[i].Orientation == doctree.Horizontal {
				horiz++
			} else {
				vert++
			}
			box = box.Union(rulings[i].BBox())
		}
		if horiz < 2 || vert < 2 {
			continue
		}
		regions = append(regions, Region{BBox: box, Strategy: StrategyLines, rulings: group})
	}
	return regions
}

func touches(h, v doctree.Ruling, tol float64) bool {
	return v.X0 >= h.X0-tol && v.X0 <= h.X1+tol &&
		h.Y0 >= v.Y0-tol && h.Y0 <= v.Y1+tol
}

// columnGapRatio is the smallest gap before a fragment, relative to the
// taller of it and its left neighbour, that starts a new column. Ordinary
// word spacing stays below it.
const columnGapRatio = 0.8

// detectAlignedText finds tables without rulings. Column edges shared by
// enough lines become anchors; runs of consecutive lines that hit at least
// two anchors, and share at least two with the line above, become regions.
func detectAlignedText(a *pageArena) []Region {
	lines := a.textLines()
	minRows := a.cfg.MinTextRows
	if len(lines) < minRows {
		return nil
	}
	anchors := a.columnAnchors(lines)
	if len(anchors) < 2 {
		return nil
	}

	var regions []Region
	var run []int
	var prevHits []int
	flush := func() {
		if len(run) >= minRows {
			if r, ok := a.alignedRegion(run, anchors); ok {
				regions = append(regions, r)
			}
		}
		run, prevHits = nil, nil
	}
	for i, line := range lines {
		hits := a.anchorsHit(line, anchors)
		if len(hits) < 2 {
			flush()
			continue
		}
		if len(run) > 0 {
			prev := lines[run[len(run)-1]].bbox
			if line.bbox.Y0-prev.Y1 > 2*math.Max(prev.Height(), line.bbox.Height()) ||
				sharedCount(prevHits, hits) < 2 {
				flush()
			}
		}
		run = append(run, i)
		prevHits = hits
	}
	flush()
	return regions
}

// columnEdges returns the line's fragments that may start a column: the
// first one, and any fragment whose gap to its left neighbour is at least
// columnGapRatio of the taller height.
func (a *pageArena) columnEdges(line textLine) []int {
	if len(line.frags) == 0 {
		return nil
	}
	edges := []int{line.frags[0]}
	for k := 1; k < len(line.frags); k++ {
		prev, cur := a.fragment(line.frags[k-1]).BBox, a.fragment(line.frags[k]).BBox
		h := math.Max(math.Max(prev.Height(), cur.Height()), 1)
		if cur.X0-prev.X1 >= columnGapRatio*h {
			edges = append(edges, line.frags[k])
		}
	}
	return edges
}

// columnAnchors clusters column edges and keeps clusters used by at least
// max(2, 30% of lines) distinct lines. A cluster spans at most
// SnapTolerance from its leftmost edge, which is the anchor, so the lines
// counted here are exactly the lines anchorsHit reports.
func (a *pageArena) columnAnchors(lines []textLine) []float64 {
	type edge struct {
		x    float64
		line int
	}
	var edges []edge
	for li, line := range lines {
		for _, fi := range a.columnEdges(line) {
			edges = append(edges, edge{x: a.fragment(fi).BBox.X0, line: li})
		}
	}
	if len(edges) == 0 {
		return nil
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].x < edges[j].x })

	need := int(math.Ceil(0.3 * float64(len(lines))))
	if need < 2 {
		need = 2
	}

	snap := a.cfg.SnapTolerance
	var anchors []float64
	for start := 0; start < len(edges); {
		end := start + 1
		for end < len(edges) && edges[end].x-edges[start].x <= snap {
			end++
		}
		seen := make(map[int]struct{})
		for _, e := range edges[start:end] {
			seen[e.line] = struct{}{}
		}
		if len(seen) >= need {
			anchors = append(anchors, edges[start].x)
		}
		start = end
	}
	return anchors
}

// anchorsHit returns the distinct anchor indexes the line's column edges
// start on, ascending.
func (a *pageArena) anchorsHit(line textLine, anchors []float64) []int {
	var hit []int
	for _, fi := range a.columnEdges(line) {
		x := a.fragment(fi).BBox.X0
		for ai, ax := range anchors {
			if x >= ax && x-ax <= a.cfg.SnapTolerance {
				if len(hit) == 0 || hit[len(hit)-1] != ai {
					hit = append(hit, ai)
				}
				break
			}
		}
	}
	return hit
}

// sharedCount counts the values two ascending index lists have in common.
func sharedCount(x, y []int) int {
	n, i, j := 0, 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i] == y[j]:
			n++
			i++
			j++
		case x[i] < y[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// alignedRegion keeps the anchors hit by at least half the run's lines as
// its columns; fewer than two such columns means the run is not a table.
func (a *pageArena) alignedRegion(run []int, anchors []float64) (Region, bool) {
	counts := make(map[int]int)
	box := a.lines[run[0]].bbox
	for _, li := range run {
		for _, ai := range a.anchorsHit(a.lines[li], anchors) {
			counts[ai]++
		}
		box = box.Union(a.lines[li].bbox)
	}
	need := max(2, (len(run)+1)/2)
	var cols []float64
	for ai, ax := range anchors {
		if counts[ai] >= need {
			cols = append(cols, ax)
		}
	}
	if len(cols) < 2 {
		return Region{}, false
	}
	return Region{
		BBox:     box,
		Strategy: StrategyText,
		lines:    append([]int(nil), run...),
		anchors:  cols,
	}, true
}
