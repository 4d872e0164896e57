package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/tablegest/internal/pathstore"
)

const pathstorePrefix = "tablegest/uploads"

// Pathstore keeps each record as one JSON node under tablegest/uploads.
type Pathstore struct {
	client *pathstore.Client
	limit  int
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client, limit: 10000}
}

func recordKey(id string) string {
	return pathstorePrefix + "/" + id
}

func (p *Pathstore) Put(ctx context.Context, rec *Record) error {
	if strings.ContainsAny(rec.ID, "/*?#") {
		return fmt.Errorf("invalid record id %q", rec.ID)
	}
	return p.client.Put(ctx, recordKey(rec.ID), rec, "tablegest")
}

func (p *Pathstore) Get(ctx context.Context, id string) (*Record, error) {
	node, err := p.client.Get(ctx, recordKey(id))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	var rec Record
	if err := json.Unmarshal(node.Value, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &rec, nil
}

func (p *Pathstore) List(ctx context.Context) ([]Summary, error) {
	nodes, err := p.client.List(ctx, pathstorePrefix, p.limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(nodes))
	for _, n := range nodes {
		var s Summary
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", n.Key, err)
		}
		out = append(out, s)
	}
	sortNewestFirst(out)
	return out, nil
}

func (p *Pathstore) Delete(ctx context.Context, id string) error {
	found, err := p.client.Delete(ctx, recordKey(id))
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
