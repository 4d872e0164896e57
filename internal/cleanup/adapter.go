package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/tablegest/internal/chunker"
	"github.com/dgallion1/tablegest/internal/tables"
)

// DefaultTimeout bounds one cleanup pass, retries included.
const DefaultTimeout = 30 * time.Second

// Outcome is the result of one cleanup attempt. Exactly one of Tables and
// Err is meaningful.
type Outcome struct {
	Tables []tables.Table
	Err    error
}

// Adapter runs a Backend best-effort: any failure leaves the caller with
// the tables it passed in.
type Adapter struct {
	backend Backend
	timeout time.Duration
	log     *slog.Logger
	stats   *LLMStats
	backoff func(attempt int) time.Duration

	batchTokens int
}

func NewAdapter(b Backend, timeout time.Duration, stats *LLMStats, log *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{backend: b, timeout: timeout, log: log, stats: stats, backoff: Backoff}
}

// WithBatchTokens caps the estimated size of one request; larger table
// sets are sent in several batches and fall back as a whole if any fails.
// Zero sends everything at once.
func (a *Adapter) WithBatchTokens(n int) *Adapter {
	a.batchTokens = n
	return a
}

// Enabled reports whether a backend is configured.
func (a *Adapter) Enabled() bool {
	return a != nil && a.backend != nil
}

// Backend returns the configured backend, or nil when cleanup is disabled.
func (a *Adapter) Backend() Backend {
	if a == nil {
		return nil
	}
	return a.backend
}

func (a *Adapter) Stats() *LLMStats {
	return a.stats
}

// Clean returns the backend's rewrite of ts and true, or ts itself and
// false when cleanup is disabled, ts is empty, or the attempt fails for any
// reason.
func (a *Adapter) Clean(ctx context.Context, ts []tables.Table) ([]tables.Table, bool) {
	if !a.Enabled() || len(ts) == 0 {
		return ts, false
	}
	out := a.Attempt(ctx, ts)
	if out.Err != nil {
		a.log.Warn("cleanup unavailable, keeping extracted tables",
			"backend", a.backend.Name(), "tables", len(ts), "error", out.Err)
		return ts, false
	}
	return out.Tables, true
}

// Attempt performs one bounded cleanup pass and reports the outcome.
func (a *Adapter) Attempt(ctx context.Context, ts []tables.Table) Outcome {
	if !a.Enabled() {
		return Outcome{Err: errors.New("cleanup disabled")}
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	out := a.attempt(ctx, ts)
	a.stats.Record(time.Since(start).Milliseconds(), out.Err != nil)
	return out
}

func (a *Adapter) attempt(ctx context.Context, ts []tables.Table) Outcome {
	var cleaned []tables.Table
	for _, batch := range chunker.Batch(ts, a.batchTokens) {
		out, err := a.rewrite(ctx, batch)
		if err != nil {
			return Outcome{Err: err}
		}
		cleaned = append(cleaned, out...)
	}
	if err := uniqueAddresses(cleaned); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Tables: cleaned}
}

// rewrite sends one batch, retrying retryable failures, and validates the
// reply.
func (a *Adapter) rewrite(ctx context.Context, batch []tables.Table) ([]tables.Table, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal tables: %w", err)
	}

	var raw []byte
	for attempt := 0; attempt < MaxRetries; attempt++ {
		raw, err = a.backend.Rewrite(ctx, payload)
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		wait := a.backoff(attempt)
		a.log.Debug("cleanup retry", "backend", a.backend.Name(), "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(wait):
		}
	}
	if err != nil {
		return nil, err
	}

	cleaned, err := DecodeTables(raw)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: empty array for %d tables", ErrMalformed, len(batch))
	}
	return cleaned, nil
}
