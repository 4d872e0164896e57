package tables

import (
	"io"
	"log/slog"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// word places a fragment with a fixed advance of 6 units per byte and a
// height of 10.
func word(text string, x, y float64) doctree.Fragment {
	return doctree.Fragment{
		Text: text,
		BBox: doctree.BBox{X0: x, Y0: y, X1: x + 6*float64(len(text)), Y1: y + 10},
	}
}

// grid draws full-length rulings at every x and y.
func grid(xs, ys []float64) []doctree.Ruling {
	var out []doctree.Ruling
	for _, y := range ys {
		r, _ := doctree.NewRuling(xs[0], y, xs[len(xs)-1], y, 1)
		out = append(out, r)
	}
	for _, x := range xs {
		r, _ := doctree.NewRuling(x, ys[0], x, ys[len(ys)-1], 1)
		out = append(out, r)
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cellString(c *string) string {
	if c == nil {
		return "<nil>"
	}
	return *c
}
