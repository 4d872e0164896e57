package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// DOCXParser reads the top-level tables of a .docx body as grids on page 1.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (doc *doctree.Document, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: docx decoder panic: %v", ErrUnreadable, rec)
		}
	}()

	d, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", ErrUnreadable, err)
	}

	var grids [][][]string
	for _, item := range d.Document.Body.Items {
		tbl, ok := item.(*docx.Table)
		if !ok {
			continue
		}
		var g [][]string
		for _, row := range tbl.TableRows {
			cells := make([]string, 0, len(row.TableCells))
			for _, cell := range row.TableCells {
				var paras []string
				for _, para := range cell.Paragraphs {
					if t := docxParagraphText(para); t != "" {
						paras = append(paras, t)
					}
				}
				cells = append(cells, strings.Join(paras, "\n"))
			}
			g = append(g, cells)
		}
		if len(g) > 0 {
			grids = append(grids, g)
		}
	}

	return &doctree.Document{
		Title: baseTitle(filename),
		Pages: []*doctree.Page{gridPage(grids)},
	}, nil
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
