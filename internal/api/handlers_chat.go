package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dgallion1/docqa/internal/rag"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorMarker prefixes every failed reply. Chat failures are reported in the
// reply body with status 200 so that chat clients can render them inline.
const ErrorMarker = "❌ Error: "

const maxChatBodyBytes = 1 << 20

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", middleware.GetReqID(r.Context()))
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		err := &rag.QueryError{Kind: rag.KindGeneration, Err: fmt.Errorf("internal error: %v", rec)}
		log.Error("chat panicked", "kind", err.Kind, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
		s.chatError(w, err)
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("chat request rejected", "kind", rag.KindInvalidInput, "error", err)
		s.chatError(w, fmt.Errorf("invalid input: malformed request body: %w", err))
		return
	}
	if req.Message == nil {
		log.Warn("chat request rejected", "kind", rag.KindInvalidInput, "error", "missing message")
		s.chatError(w, errors.New("invalid input: message is required"))
		return
	}

	if s.deps.Service == nil {
		err := &rag.QueryError{Kind: rag.KindRetrieval, Err: rag.ErrIndexUnavailable}
		log.Error("chat failed", "kind", err.Kind, "error", err)
		s.chatError(w, err)
		return
	}

	ans, err := s.deps.Service.Answer(r.Context(), *req.Message)
	if err != nil {
		kind := rag.KindOf(err)
		if kind == rag.KindInvalidInput {
			log.Warn("chat request rejected", "kind", kind, "error", err)
		} else {
			log.Error("chat failed", "kind", kind, "error", err)
		}
		s.chatError(w, err)
		return
	}

	log.Info("chat answered", "hits", len(ans.Hits), "elapsed_ms", ans.Elapsed.Milliseconds())
	writeJSON(w, http.StatusOK, chatResponse{Reply: ans.Reply})
}

func (s *Server) chatError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, chatResponse{Reply: ErrorMarker + err.Error()})
}
