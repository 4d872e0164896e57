package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// MarkdownParser reads GitHub-style pipe tables with goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &doctree.Document{Title: baseTitle(filename)}
	var grids [][][]string
	titled := false
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && !titled {
			if t := inlineText(h, src); t != "" {
				doc.Title, titled = t, true
			}
		}
		tbl, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		var g [][]string
		for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
			switch row.(type) {
			case *extast.TableHeader, *extast.TableRow:
			default:
				continue
			}
			var cells []string
			for c := row.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*extast.TableCell); ok {
					cells = append(cells, inlineText(c, src))
				}
			}
			g = append(g, cells)
		}
		if len(g) > 0 {
			grids = append(grids, g)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk markdown: %v", ErrUnreadable, err)
	}

	doc.Pages = []*doctree.Page{gridPage(grids)}
	return doc, nil
}

// inlineText concatenates the text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() {
				buf.WriteByte('\n')
			} else if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
