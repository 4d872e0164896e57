// Package chunker splits table sequences into batches that fit a model's
// token budget.
package chunker

import (
	"github.com/dgallion1/tablegest/internal/tables"
)

// tableOverhead covers the JSON keys and brackets around one table;
// each cell adds one token for quoting and separators.
const tableOverhead = 12

// TableTokens estimates the tokens one table costs in a JSON payload.
func TableTokens(t tables.Table) int {
	n := tableOverhead
	for _, h := range t.Headers {
		n += 1 + EstimateTokens(h)
	}
	for _, row := range t.Rows {
		for _, c := range row {
			n++
			if c != nil {
				n += EstimateTokens(*c)
			}
		}
	}
	return n
}

// Batch splits ts into consecutive groups whose estimated size stays within
// maxTokens, preserving order. A table larger than the budget gets a batch
// of its own. maxTokens <= 0 puts everything in one batch.
func Batch(ts []tables.Table, maxTokens int) [][]tables.Table {
	if len(ts) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		return [][]tables.Table{ts}
	}

	var batches [][]tables.Table
	var cur []tables.Table
	size := 0
	for _, t := range ts {
		n := TableTokens(t)
		if len(cur) > 0 && size+n > maxTokens {
			batches = append(batches, cur)
			cur, size = nil, 0
		}
		cur = append(cur, t)
		size += n
	}
	return append(batches, cur)
}
