package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docqa/internal/index"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/rag"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the read-only objects built at startup. Any of them may be nil;
// the matching endpoints then report themselves unavailable.
type Deps struct {
	Service  *rag.Service
	Index    *index.Index
	Report   pipeline.Report
	LLMStats *llm.Stats
	LLMModel string
}

// allMethods is every method net/http names. cors has no method wildcard.
var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace,
}

// Server is the HTTP API server for docqa.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger) *Server {
	s := &Server{deps: deps, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		// Every origin is allowed and echoed back verbatim.
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   allMethods,
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)

	r.Get("/api/index", s.handleIndex)
	r.Get("/api/stats/llm", s.handleLLMStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
