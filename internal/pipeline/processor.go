package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/tablegest/internal/cleanup"
	"github.com/dgallion1/tablegest/internal/parser"
	"github.com/dgallion1/tablegest/internal/store"
	"github.com/dgallion1/tablegest/internal/tables"
)

// storeTimeout bounds the store phase, which ignores caller cancellation.
const storeTimeout = 30 * time.Second

// Processor runs one document through parse, extract, optional cleanup
// and store.
type Processor struct {
	parserOpts parser.Options
	extractor  *tables.Extractor
	cleaner    *cleanup.Adapter
	store      store.Store
	log        *slog.Logger
}

func NewProcessor(opts parser.Options, extractor *tables.Extractor, cleaner *cleanup.Adapter, st store.Store, log *slog.Logger) *Processor {
	return &Processor{
		parserOpts: opts,
		extractor:  extractor,
		cleaner:    cleaner,
		store:      st,
		log:        log,
	}
}

// Process runs the full pipeline for a job and returns the stored record.
// Parse errors wrap parser.ErrUnreadable; cleanup failures never fail the job.
func (p *Processor) Process(ctx context.Context, job *Job) (*store.Record, error) {
	log := p.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	ps, err := parser.ForFile(job.Filename, p.parserOpts)
	if err != nil {
		return nil, p.fail(log, job, "parsing", err)
	}
	doc, err := ps.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, p.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
	}
	job.SetPages(len(doc.Pages))

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	ts, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, p.fail(log, job, "extracting", fmt.Errorf("extract: %w", err))
	}
	job.SetTables(len(ts))
	log.Info("extracted tables", "pages", len(doc.Pages), "tables", len(ts))

	// Phase 3: Cleanup (best effort)
	if job.UseLLM && len(ts) > 0 && p.cleaner.Enabled() {
		job.SetStatus(StatusCleaning, "cleaning")
		var cleaned bool
		if ts, cleaned = p.cleaner.Clean(ctx, ts); cleaned {
			job.SetTables(len(ts))
			job.SetCleaned()
		}
	}

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	rec := &store.Record{
		ID:          job.ID,
		Filename:    job.Filename,
		CreatedAt:   job.CreatedAt,
		UseLLM:      job.UseLLM,
		TableCount:  len(ts),
		ContentHash: job.ContentHash,
		Tables:      ts,
	}
	// A caller that gave up during cleanup still gets the extracted tables.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := p.store.Put(storeCtx, rec); err != nil {
		return nil, p.fail(log, job, "storing", fmt.Errorf("store: %w", err))
	}

	job.Complete(rec.ID)
	log.Info("upload processed", "tables", len(ts), "duration_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func (p *Processor) fail(log *slog.Logger, job *Job, phase string, err error) error {
	log.Error("job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	return err
}
