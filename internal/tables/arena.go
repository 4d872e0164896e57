package tables

import (
	"math"
	"sort"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// pageArena owns everything derived from one page while its tables are
// being built. Regions and cells refer to its contents by index; the arena
// is dropped as soon as the page's tables are emitted.
type pageArena struct {
	page *doctree.Page
	cfg  Config

	lines     []textLine
	linesDone bool
}

// textLine is a set of fragments sharing a baseline, left to right.
type textLine struct {
	frags []int
	bbox  doctree.BBox
}

func newPageArena(page *doctree.Page, cfg Config) *pageArena {
	return &pageArena{page: page, cfg: cfg}
}

func (a *pageArena) fragment(i int) doctree.Fragment {
	return a.page.Fragments[i]
}

// textLines groups all page fragments into lines, top to bottom.
func (a *pageArena) textLines() []textLine {
	if a.linesDone {
		return a.lines
	}
	a.linesDone = true
	idx := make([]int, len(a.page.Fragments))
	for i := range idx {
		idx[i] = i
	}
	for _, group := range a.groupLines(idx) {
		line := textLine{frags: group, bbox: a.fragment(group[0]).BBox}
		for _, fi := range group[1:] {
			line.bbox = line.bbox.Union(a.fragment(fi).BBox)
		}
		a.lines = append(a.lines, line)
	}
	return a.lines
}

// groupLines splits fragment indexes into reading-order lines: fragments
// whose vertical centers lie within TextTolerance of the line's first
// fragment share it, and each line is sorted by left edge.
func (a *pageArena) groupLines(idx []int) [][]int {
	if len(idx) == 0 {
		return nil
	}
	sorted := append([]int(nil), idx...)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := a.fragment(sorted[i]).BBox, a.fragment(sorted[j]).BBox
		if bi.CenterY() != bj.CenterY() {
			return bi.CenterY() < bj.CenterY()
		}
		return bi.X0 < bj.X0
	})

	var groups [][]int
	var cur []int
	var ref float64
	for _, fi := range sorted {
		cy := a.fragment(fi).BBox.CenterY()
		if len(cur) > 0 && math.Abs(cy-ref) > a.cfg.TextTolerance {
			groups = append(groups, cur)
			cur = nil
		}
		if len(cur) == 0 {
			ref = cy
		}
		cur = append(cur, fi)
	}
	groups = append(groups, cur)

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return a.fragment(g[i]).BBox.X0 < a.fragment(g[j]).BBox.X0
		})
	}
	return groups
}

// clusterPositions sorts values and merges runs whose neighbours are no
// more than tol apart, returning the mean of each run.
func clusterPositions(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	v := append([]float64(nil), values...)
	sort.Float64s(v)

	var out []float64
	sum, n := v[0], 1
	for i := 1; i < len(v); i++ {
		if v[i]-v[i-1] <= tol {
			sum += v[i]
			n++
			continue
		}
		out = append(out, sum/float64(n))
		sum, n = v[i], 1
	}
	return append(out, sum/float64(n))
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri != rj {
		u.parent[rj] = ri
	}
}
