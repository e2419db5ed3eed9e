package api

import "net/http"

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.LLMStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.deps.LLMModel,
		"stats": s.deps.LLMStats.Snapshot(),
	})
}

// handleIndex describes the index built at startup and the ingestion run
// that produced it.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  "index unavailable",
			"ingest": s.deps.Report,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":  s.deps.Index.Stats(),
		"ingest": s.deps.Report,
	})
}
