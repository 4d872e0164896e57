package export

import (
	"encoding/json"
	"io"

	"github.com/dgallion1/tablegest/internal/tables"
)

// WriteJSON writes ts as an indented JSON array. HTML characters in cell
// text are left unescaped.
func WriteJSON(w io.Writer, ts []tables.Table) error {
	if ts == nil {
		ts = []tables.Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(ts)
}
