package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/tablegest/internal/export"
	"github.com/dgallion1/tablegest/internal/store"
	"github.com/dgallion1/tablegest/internal/tables"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list uploads: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type resultResponse struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	CreatedAt time.Time      `json:"created_at"`
	UseLLM    bool           `json:"use_llm"`
	Tables    []tables.Table `json:"tables"`
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	ts := rec.Tables
	if ts == nil {
		ts = []tables.Table{}
	}
	writeJSON(w, http.StatusOK, resultResponse{
		ID:        rec.ID,
		Filename:  rec.Filename,
		CreatedAt: rec.CreatedAt,
		UseLLM:    rec.UseLLM,
		Tables:    ts,
	})
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "result not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("deleted result", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	s.sendExport(w, export.FormatJSON, fmt.Sprintf("tables_%s.json", rec.ID), func(buf *bytes.Buffer) error {
		return export.WriteJSON(buf, rec.Tables)
	})
}

// handleExportTable sends one table, addressed by page and table_index, as CSV.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		jsonError(w, "page must be an integer >= 1", http.StatusBadRequest)
		return
	}
	idx, err := strconv.Atoi(q.Get("table_index"))
	if err != nil || idx < 0 {
		jsonError(w, "table_index must be an integer >= 0", http.StatusBadRequest)
		return
	}

	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	t, found := tables.Find(rec.Tables, page, idx)
	if !found {
		jsonError(w, "table not found", http.StatusNotFound)
		return
	}
	name := fmt.Sprintf("tables_%s_p%d_t%d.csv", rec.ID, page, idx)
	s.sendExport(w, export.FormatCSV, name, func(buf *bytes.Buffer) error {
		return export.WriteCSV(buf, t)
	})
}

// handleExportAll sends every table of a record in one bundle format.
func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil || !slices.Contains(export.Bundles, format) {
		jsonError(w, "unsupported export format", http.StatusNotFound)
		return
	}
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	title := strings.TrimSuffix(rec.Filename, filepath.Ext(rec.Filename))
	name := fmt.Sprintf("tables_%s.%s", rec.ID, format)
	s.sendExport(w, format, name, func(buf *bytes.Buffer) error {
		return export.Write(buf, format, title, rec.Tables)
	})
}

func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "result not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to load result: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

// sendExport renders into memory first so a failed render still gets a
// clean error response.
func (s *Server) sendExport(w http.ResponseWriter, format export.Format, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.log.Error("export failed", "format", format, "file", filename, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
