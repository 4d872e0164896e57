package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	use_llm      BOOLEAN NOT NULL DEFAULT FALSE,
	table_count  INTEGER NOT NULL DEFAULT 0,
	content_hash TEXT NOT NULL DEFAULT '',
	result_json  JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS uploads_created_at_idx ON uploads (created_at DESC);`

// Postgres stores records in a single uploads table; the tables of a
// record live in the result_json column.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects through the pgx stdlib driver and creates the
// schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Put(ctx context.Context, rec *Record) error {
	result, err := json.Marshal(rec.Tables)
	if err != nil {
		return fmt.Errorf("marshal tables: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, created_at, use_llm, table_count, content_hash, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			created_at = EXCLUDED.created_at,
			use_llm = EXCLUDED.use_llm,
			table_count = EXCLUDED.table_count,
			content_hash = EXCLUDED.content_hash,
			result_json = EXCLUDED.result_json`,
		rec.ID, rec.Filename, rec.CreatedAt.UTC(), rec.UseLLM, rec.TableCount, rec.ContentHash, string(result))
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var result []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, filename, created_at, use_llm, table_count, content_hash, result_json
		FROM uploads WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Filename, &rec.CreatedAt, &rec.UseLLM, &rec.TableCount, &rec.ContentHash, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select upload %s: %w", id, err)
	}
	if err := json.Unmarshal(result, &rec.Tables); err != nil {
		return nil, fmt.Errorf("decode tables of %s: %w", id, err)
	}
	return &rec, nil
}

func (p *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, filename, created_at, table_count, use_llm
		FROM uploads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Filename, &s.CreatedAt, &s.TableCount, &s.UseLLM); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete upload %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
