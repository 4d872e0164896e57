package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/dgallion1/tablegest/internal/tables"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	// Cell text is entity-escaped by mdEscape; the only raw HTML left is
	// the <br> line breaks it inserts.
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

const htmlStyle = `table{border-collapse:collapse;margin-bottom:1.5em}` +
	`th,td{border:1px solid #999;padding:4px 8px;vertical-align:top}` +
	`th{background:#eee}`

// WriteHTML renders the markdown export to a standalone HTML page.
func WriteHTML(w io.Writer, title string, ts []tables.Table) error {
	var body bytes.Buffer
	if err := renderer.Convert(markdown(title, ts), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), htmlStyle, body.Bytes())
	return err
}
