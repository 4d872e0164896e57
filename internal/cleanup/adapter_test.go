package cleanup

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/tablegest/internal/tables"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTables(t *testing.T) []tables.Table {
	t.Helper()
	tbl, err := tables.NewTable(1, 0, [][]string{{"Name ", "Age"}, {"Ana", "30"}, {"", ""}})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	return []tables.Table{tbl}
}

func newTestAdapter(b Backend, timeout time.Duration) *Adapter {
	a := NewAdapter(b, timeout, nil, quietLogger())
	a.backoff = func(int) time.Duration { return 0 }
	return a
}

func TestAdapter_ReplacesOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`[{"page":1,"table_index":0,"headers":["name","age"],"rows":[["Ana",30],[" ",null]]}]`))
	}))
	defer srv.Close()

	in := sampleTables(t)
	out, cleaned := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).Clean(context.Background(), in)
	if !cleaned {
		t.Error("expected cleaned to be true")
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 table, got %d", len(out))
	}
	if out[0].Headers[0] != "name" || out[0].Headers[1] != "age" {
		t.Errorf("expected cleaned headers, got %q", out[0].Headers)
	}
	if *out[0].Rows[0][1] != "30" {
		t.Errorf("expected numeric cell as text, got %q", *out[0].Rows[0][1])
	}
	if out[0].Rows[1][0] != nil {
		t.Error("expected blank cell to become nil")
	}
	if in[0].Headers[0] != "Name" {
		t.Errorf("expected input tables untouched, got %q", in[0].Headers)
	}
}

func TestAdapter_FallsBack(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"malformed json", 200, `[{"page":1,`},
		{"non-array json", 200, `{"tables":[]}`},
		{"bad request", 400, `{"error":"nope"}`},
		{"server error", 503, `busy`},
		{"missing fields", 200, `[{"page":1,"table_index":0}]`},
		{"row width", 200, `[{"page":1,"table_index":0,"headers":["a","b"],"rows":[["x"]]}]`},
		{"bad page", 200, `[{"page":0,"table_index":0,"headers":[],"rows":[]}]`},
		{"nested cell", 200, `[{"page":1,"table_index":0,"headers":["a"],"rows":[[{"v":1}]]}]`},
		{"empty array", 200, `[]`},
		{"duplicate", 200, `[{"page":1,"table_index":0,"headers":[],"rows":[]},{"page":1,"table_index":0,"headers":[],"rows":[]}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			in := sampleTables(t)
			a := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second)
			out, cleaned := a.Clean(context.Background(), in)
			if cleaned {
				t.Error("expected cleaned to be false")
			}
			if len(out) != len(in) || &out[0] != &in[0] {
				t.Errorf("expected original tables back, got %+v", out)
			}
			if snap := a.Stats().Snapshot(); snap.Fallbacks != 1 {
				t.Errorf("expected 1 fallback recorded, got %d", snap.Fallbacks)
			}
		})
	}
}

func TestAdapter_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	in := sampleTables(t)
	out, _ := newTestAdapter(NewHTTPBackend(url, ""), time.Second).Clean(context.Background(), in)
	if &out[0] != &in[0] {
		t.Error("expected original tables on network error")
	}
}

func TestAdapter_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"page":1,"table_index":0,"headers":["x"],"rows":[]}]`))
	}))
	defer srv.Close()

	out, _ := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).Clean(context.Background(), sampleTables(t))
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if len(out) != 1 || out[0].Headers[0] != "x" {
		t.Errorf("expected cleaned table after retries, got %+v", out)
	}
}

func TestAdapter_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).Clean(context.Background(), sampleTables(t))
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestAdapter_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	in := sampleTables(t)
	start := time.Now()
	out, _ := newTestAdapter(NewHTTPBackend(srv.URL, ""), 50*time.Millisecond).Clean(context.Background(), in)
	if &out[0] != &in[0] {
		t.Error("expected original tables on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected timeout to cut the call short, took %v", elapsed)
	}
}

func TestAdapter_SkipsWhenDisabledOrEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	in := sampleTables(t)
	disabled := NewAdapter(nil, 0, nil, quietLogger())
	if disabled.Enabled() {
		t.Error("expected adapter without backend to be disabled")
	}
	if out, _ := disabled.Clean(context.Background(), in); &out[0] != &in[0] {
		t.Error("expected input back from disabled adapter")
	}

	var nilAdapter *Adapter
	if out, _ := nilAdapter.Clean(context.Background(), in); &out[0] != &in[0] {
		t.Error("expected input back from nil adapter")
	}

	empty := []tables.Table{}
	out, _ := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).Clean(context.Background(), empty)
	if len(out) != 0 {
		t.Errorf("expected empty result, got %d tables", len(out))
	}
	if calls.Load() != 0 {
		t.Errorf("expected no backend call, got %d", calls.Load())
	}
}

func threeTables(t *testing.T) []tables.Table {
	t.Helper()
	var ts []tables.Table
	for i := 0; i < 3; i++ {
		tbl, err := tables.NewTable(1, i, [][]string{{"A"}, {"x"}})
		if err != nil {
			t.Fatal(err)
		}
		ts = append(ts, tbl)
	}
	return ts
}

func TestAdapter_Batches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.Copy(w, r.Body)
	}))
	defer srv.Close()

	in := threeTables(t)
	a := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).WithBatchTokens(1)
	out := a.Attempt(context.Background(), in)
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected one request per table, got %d", calls.Load())
	}
	if len(out.Tables) != 3 || out.Tables[2].TableIndex != 2 {
		t.Errorf("expected 3 tables in order, got %+v", out.Tables)
	}
}

func TestAdapter_BatchFailureFallsBackWhole(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.Write([]byte(`{"oops":true}`))
			return
		}
		io.Copy(w, r.Body)
	}))
	defer srv.Close()

	in := threeTables(t)
	a := newTestAdapter(NewHTTPBackend(srv.URL, ""), time.Second).WithBatchTokens(1)
	out, _ := a.Clean(context.Background(), in)
	if &out[0] != &in[0] {
		t.Error("expected original tables when one batch fails")
	}
}
