package doctree

import "math"

// Document is a parsed upload: an ordered list of pages.
type Document struct {
	Title string  // Document title (from metadata or filename)
	Pages []*Page // 1-based page numbers, ascending
}

// Page carries the primitives table extraction works from. Geometric
// sources (PDF) fill Fragments and Rulings; structured sources (HTML,
// DOCX, Markdown, CSV) already know their tables and fill Grids instead.
type Page struct {
	Number    int
	Width     float64
	Height    float64
	Fragments []Fragment
	Rulings   []Ruling
	Grids     [][][]string
}

// BBox is an axis-aligned rectangle in page units. The origin is the
// top-left corner of the page and y grows downward.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

func (b BBox) Width() float64   { return b.X1 - b.X0 }
func (b BBox) Height() float64  { return b.Y1 - b.Y0 }
func (b BBox) CenterX() float64 { return (b.X0 + b.X1) / 2 }
func (b BBox) CenterY() float64 { return (b.Y0 + b.Y1) / 2 }

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Contains reports whether the point lies inside b, edges included.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Fragment is a run of text with its bounding box.
type Fragment struct {
	Text string
	BBox BBox
}

// Orientation of a ruling line.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Ruling is a straight horizontal or vertical line drawn on the page.
// Coordinates are normalized so that X0 <= X1 and Y0 <= Y1; a horizontal
// ruling has Y0 == Y1 and a vertical one X0 == X1.
type Ruling struct {
	Orientation Orientation
	X0, Y0      float64
	X1, Y1      float64
}

// NewRuling classifies the segment (x0,y0)-(x1,y1). Segments whose
// off-axis drift exceeds tol are diagonal and rejected.
func NewRuling(x0, y0, x1, y1, tol float64) (Ruling, bool) {
	dx, dy := math.Abs(x1-x0), math.Abs(y1-y0)
	switch {
	case dy <= tol && dx > dy:
		y := (y0 + y1) / 2
		return Ruling{Orientation: Horizontal, X0: math.Min(x0, x1), Y0: y, X1: math.Max(x0, x1), Y1: y}, true
	case dx <= tol && dy > dx:
		x := (x0 + x1) / 2
		return Ruling{Orientation: Vertical, X0: x, Y0: math.Min(y0, y1), X1: x, Y1: math.Max(y0, y1)}, true
	}
	return Ruling{}, false
}

// Position is the fixed coordinate of the ruling: y for horizontal
// rulings, x for vertical ones.
func (r Ruling) Position() float64 {
	if r.Orientation == Horizontal {
		return r.Y0
	}
	return r.X0
}

// Length along the ruling's axis.
func (r Ruling) Length() float64 {
	if r.Orientation == Horizontal {
		return r.X1 - r.X0
	}
	return r.Y1 - r.Y0
}

func (r Ruling) BBox() BBox {
	return BBox{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}
