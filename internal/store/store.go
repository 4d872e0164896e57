package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgallion1/tablegest/internal/tables"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// Record is one processed upload and its tables.
type Record struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	CreatedAt   time.Time      `json:"created_at"`
	UseLLM      bool           `json:"use_llm"`
	TableCount  int            `json:"table_count"`
	ContentHash string         `json:"content_hash,omitempty"`
	Tables      []tables.Table `json:"tables"`
}

// Summary is the history view of a record.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
	TableCount int       `json:"table_count"`
	UseLLM     bool      `json:"use_llm"`
}

func (r *Record) Summary() Summary {
	return Summary{
		ID:         r.ID,
		Filename:   r.Filename,
		CreatedAt:  r.CreatedAt,
		TableCount: r.TableCount,
		UseLLM:     r.UseLLM,
	}
}

// Store persists upload records.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns all records, newest first.
	List(ctx context.Context) ([]Summary, error)
	// Delete returns ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
	Close() error
}

func sortNewestFirst(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID > s[j].ID
	})
}
