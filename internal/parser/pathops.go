package parser

import (
	"bytes"
	"math"
	"strconv"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// pageBox is a page rectangle in PDF user space (origin bottom-left).
type pageBox struct {
	llx, lly, urx, ury float64
}

func (b pageBox) width() float64  { return b.urx - b.llx }
func (b pageBox) height() float64 { return b.ury - b.lly }

// toPage converts a user-space point to top-left page coordinates.
func (b pageBox) toPage(x, y float64) (float64, float64) {
	return x - b.llx, b.ury - y
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

type point struct{ x, y float64 }

type pathSeg struct{ a, b point }

// pathReader interprets the path construction and painting operators of a
// content stream and records every painted straight horizontal or vertical
// segment as a ruling. Text, images and curves are ignored.
type pathReader struct {
	box pageBox
	tol float64

	ctm     matrix
	saved   []matrix
	operand []float64

	cur, start point
	pending    []pathSeg

	rulings []doctree.Ruling
}

func readRulings(content []byte, box pageBox, tol float64) []doctree.Ruling {
	pr := &pathReader{box: box, tol: tol, ctm: identity}
	lx := &lexer{src: content}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokNumber:
			pr.operand = append(pr.operand, tok.num)
		case tokOperator:
			if tok.text == "ID" {
				lx.skipInlineImage()
			}
			pr.exec(tok.text)
			pr.operand = pr.operand[:0]
		}
	}
	return pr.rulings
}

// args returns the last n operands, or false if there are fewer.
func (pr *pathReader) args(n int) ([]float64, bool) {
	if len(pr.operand) < n {
		return nil, false
	}
	return pr.operand[len(pr.operand)-n:], true
}

func (pr *pathReader) point(x, y float64) point {
	x, y = pr.ctm.apply(x, y)
	return point{x, y}
}

func (pr *pathReader) exec(op string) {
	switch op {
	case "q":
		pr.saved = append(pr.saved, pr.ctm)
	case "Q":
		if n := len(pr.saved); n > 0 {
			pr.ctm = pr.saved[n-1]
			pr.saved = pr.saved[:n-1]
		}
	case "cm":
		if a, ok := pr.args(6); ok {
			pr.ctm = matrix{a[0], a[1], a[2], a[3], a[4], a[5]}.mul(pr.ctm)
		}
	case "m":
		if a, ok := pr.args(2); ok {
			pr.cur = pr.point(a[0], a[1])
			pr.start = pr.cur
		}
	case "l":
		if a, ok := pr.args(2); ok {
			p := pr.point(a[0], a[1])
			pr.pending = append(pr.pending, pathSeg{pr.cur, p})
			pr.cur = p
		}
	case "c":
		if a, ok := pr.args(6); ok {
			pr.cur = pr.point(a[4], a[5])
		}
	case "v", "y":
		if a, ok := pr.args(4); ok {
			pr.cur = pr.point(a[2], a[3])
		}
	case "h":
		pr.closePath()
	case "re":
		if a, ok := pr.args(4); ok {
			pr.rect(a[0], a[1], a[2], a[3])
		}
	case "s", "b", "b*":
		pr.closePath()
		pr.paint()
	case "S", "f", "F", "f*", "B", "B*":
		pr.paint()
	case "n":
		pr.pending = pr.pending[:0]
	}
}

func (pr *pathReader) closePath() {
	if pr.cur != pr.start {
		pr.pending = append(pr.pending, pathSeg{pr.cur, pr.start})
	}
	pr.cur = pr.start
}

// rect adds a rectangle. A rectangle thinner than the tolerance is a
// drawn rule and contributes only its center line.
func (pr *pathReader) rect(x, y, w, h float64) {
	p0 := pr.point(x, y)
	p1 := pr.point(x+w, y)
	p2 := pr.point(x+w, y+h)
	p3 := pr.point(x, y+h)

	minX := math.Min(math.Min(p0.x, p1.x), math.Min(p2.x, p3.x))
	maxX := math.Max(math.Max(p0.x, p1.x), math.Max(p2.x, p3.x))
	minY := math.Min(math.Min(p0.y, p1.y), math.Min(p2.y, p3.y))
	maxY := math.Max(math.Max(p0.y, p1.y), math.Max(p2.y, p3.y))

	switch {
	case maxY-minY <= pr.tol && maxX-minX > pr.tol:
		mid := (minY + maxY) / 2
		pr.pending = append(pr.pending, pathSeg{point{minX, mid}, point{maxX, mid}})
	case maxX-minX <= pr.tol && maxY-minY > pr.tol:
		mid := (minX + maxX) / 2
		pr.pending = append(pr.pending, pathSeg{point{mid, minY}, point{mid, maxY}})
	default:
		pr.pending = append(pr.pending,
			pathSeg{p0, p1}, pathSeg{p1, p2}, pathSeg{p2, p3}, pathSeg{p3, p0})
	}
	pr.cur, pr.start = p0, p0
}

func (pr *pathReader) paint() {
	for _, s := range pr.pending {
		x0, y0 := pr.box.toPage(s.a.x, s.a.y)
		x1, y1 := pr.box.toPage(s.b.x, s.b.y)
		r, ok := doctree.NewRuling(x0, y0, x1, y1, pr.tol)
		if !ok || r.Length() <= pr.tol {
			continue
		}
		pr.rulings = append(pr.rulings, r)
	}
	pr.pending = pr.pending[:0]
}

type tokKind int

const (
	tokNumber tokKind = iota
	tokOperator
	tokOther
)

type token struct {
	kind tokKind
	num  float64
	text string
}

// lexer splits a content stream into PDF tokens. Strings, names, arrays
// and dictionaries are reported as tokOther without being decoded.
type lexer struct {
	src []byte
	pos int
}

func isSpace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (lx *lexer) next() (token, bool) {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case isSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' && lx.src[lx.pos] != '\r' {
				lx.pos++
			}
		case c == '(':
			lx.skipString()
			return token{kind: tokOther}, true
		case c == '<':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '<' {
				lx.pos += 2
				return token{kind: tokOther, text: "<<"}, true
			}
			end := bytes.IndexByte(lx.src[lx.pos:], '>')
			if end < 0 {
				lx.pos = len(lx.src)
			} else {
				lx.pos += end + 1
			}
			return token{kind: tokOther}, true
		case c == '>':
			lx.pos++
			if lx.pos < len(lx.src) && lx.src[lx.pos] == '>' {
				lx.pos++
			}
			return token{kind: tokOther, text: ">>"}, true
		case c == '[' || c == ']' || c == '{' || c == '}':
			lx.pos++
			return token{kind: tokOther, text: string(c)}, true
		case c == '/':
			lx.pos++
			lx.word()
			return token{kind: tokOther}, true
		case c == ')':
			lx.pos++
		default:
			w := lx.word()
			if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' {
				if f, err := strconv.ParseFloat(w, 64); err == nil {
					return token{kind: tokNumber, num: f}, true
				}
				return token{kind: tokOther}, true
			}
			return token{kind: tokOperator, text: w}, true
		}
	}
	return token{}, false
}

func (lx *lexer) word() string {
	start := lx.pos
	for lx.pos < len(lx.src) && !isSpace(lx.src[lx.pos]) && !isDelim(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start {
		lx.pos++
	}
	return string(lx.src[start:lx.pos])
}

// skipString consumes a literal string, honouring nested parentheses and
// backslash escapes.
func (lx *lexer) skipString() {
	depth := 0
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case '\\':
			lx.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				lx.pos++
				return
			}
		}
		lx.pos++
	}
}

// skipInlineImage jumps past the binary data following an ID operator up
// to the EI that ends it.
func (lx *lexer) skipInlineImage() {
	for i := lx.pos + 1; i+1 < len(lx.src); i++ {
		if lx.src[i] == 'E' && lx.src[i+1] == 'I' && isSpace(lx.src[i-1]) &&
			(i+2 == len(lx.src) || isSpace(lx.src[i+2])) {
			lx.pos = i + 2
			return
		}
	}
	lx.pos = len(lx.src)
}
