package parser

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dgallion1/tablegest/internal/doctree"
)

var disableConfigDir sync.Once

// PDFParser reads page geometry from PDF files. pdfcpu validates the file,
// supplies page boxes and the raw content streams that rulings are read
// from; ledongthuc/pdf supplies positioned text.
type PDFParser struct {
	Options
}

func (p *PDFParser) Parse(r io.Reader, filename string) (doc *doctree.Document, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	opts := p.Options.withDefaults()

	// Both decoders panic on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: pdf decoder panic: %v", ErrUnreadable, rec)
		}
	}()

	disableConfigDir.Do(api.DisableConfigDir)
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %v", ErrUnreadable, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: validate pdf: %v", ErrUnreadable, err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrUnreadable)
	}

	text, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf text: %v", ErrUnreadable, err)
	}

	doc = &doctree.Document{Title: baseTitle(filename)}
	for n := 1; n <= ctx.PageCount; n++ {
		page, err := readPDFPage(ctx, text, n, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, n, err)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func readPDFPage(ctx *model.Context, text *lpdf.Reader, n int, opts Options) (*doctree.Page, error) {
	_, _, attrs, err := ctx.PageDict(n, false)
	if err != nil {
		return nil, fmt.Errorf("page dict: %w", err)
	}
	box := pageBox{urx: 612, ury: 792} // US Letter when no MediaBox is inherited
	if attrs != nil && attrs.MediaBox != nil {
		mb := attrs.MediaBox
		box = pageBox{llx: mb.LL.X, lly: mb.LL.Y, urx: mb.UR.X, ury: mb.UR.Y}
	}
	page := &doctree.Page{Number: n, Width: box.width(), Height: box.height()}

	content, err := pdfcpu.ExtractPageContent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("content stream: %w", err)
	}
	if content != nil {
		raw, err := io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("read content stream: %w", err)
		}
		page.Rulings = readRulings(raw, box, opts.RulingTolerance)
	}

	if lp := text.Page(n); !lp.V.IsNull() {
		page.Fragments = mergeWords(glyphsFrom(lp.Content().Text, box), opts.WordGap, opts.LineTolerance)
	}
	return page, nil
}
