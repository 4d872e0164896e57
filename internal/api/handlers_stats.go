package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if !s.cleaner.Enabled() {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	b := s.cleaner.Backend()
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": b.Name(),
		"model":    b.Model(),
		"stats":    s.cleaner.Stats().Snapshot(),
	})
}
