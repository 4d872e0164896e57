package tables

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tablegest/internal/doctree"
)

// Extractor runs detection, segmentation and normalization over a
// document's pages.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

func NewExtractor(cfg Config, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{cfg: cfg.withDefaults(), log: log}
}

// ExtractPage returns the page's tables with dense table indexes in
// top-to-bottom order. Regions that cannot be segmented are skipped and
// do not consume an index.
func (e *Extractor) ExtractPage(page *doctree.Page) []Table {
	log := e.log.With("page", page.Number)
	var out []Table

	if len(page.Grids) > 0 {
		for gi, grid := range page.Grids {
			t, err := NewTable(page.Number, len(out), grid)
			if err != nil {
				log.Warn("skipping grid", "grid", gi, "error", err)
				continue
			}
			out = append(out, t)
		}
		return out
	}

	arena := newPageArena(page, e.cfg)
	for _, r := range arena.detect() {
		grid, err := arena.segment(r)
		if err == nil {
			var t Table
			t, err = NewTable(page.Number, len(out), grid)
			if err == nil {
				out = append(out, t)
				continue
			}
		}
		if errors.Is(err, ErrMalformedRegion) {
			log.Warn("skipping region", "strategy", r.Strategy.String(), "error", err)
			continue
		}
		log.Error("region failed", "strategy", r.Strategy.String(), "error", err)
	}
	return out
}

// Extract processes pages concurrently and returns all tables ordered by
// (page, table_index). It fails only if ctx is cancelled.
func (e *Extractor) Extract(ctx context.Context, doc *doctree.Document) ([]Table, error) {
	perPage := make([][]Table, len(doc.Pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PageWorkers)
	for i, page := range doc.Pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perPage[i] = e.ExtractPage(page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := []Table{}
	for _, ts := range perPage {
		all = append(all, ts...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Page < all[j].Page })

	e.log.Debug("extraction complete", "pages", len(doc.Pages), "tables", len(all))
	return all, nil
}
