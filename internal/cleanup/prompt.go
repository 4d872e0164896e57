package cleanup

import "strings"

const cleanupPrompt = `You are given tables extracted from a PDF as a JSON array. Each table has "page", "table_index", "headers" and "rows"; a row cell is a string or null.

Improve the tables:
- Standardize headers: lowercase, words joined by underscores, no surrounding whitespace.
- Remove columns that are empty in the header and in every row.
- Where a row is obviously shifted by one cell, move its cells back under the right header.
- Keep every table's "page" and "table_index" unchanged, and keep every row the same width as its headers.

Return ONLY a JSON array with exactly the same shape:
[{"page": 1, "table_index": 0, "headers": ["..."], "rows": [["...", null]]}]
No commentary, no code fences.`

// BuildPrompt combines the instructions with the tables payload for
// providers that take a single prompt string.
func BuildPrompt(payload []byte) string {
	var b strings.Builder
	b.Grow(len(cleanupPrompt) + len(payload) + 32)
	b.WriteString(cleanupPrompt)
	b.WriteString("\n\nTables JSON:\n")
	b.Write(payload)
	return b.String()
}
