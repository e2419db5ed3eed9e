// Package rag answers questions from an index: retrieve, then generate.
package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docqa/internal/index"
)

// Answer is a successful reply plus the chunks it was generated from.
type Answer struct {
	Reply   string      `json:"reply"`
	Hits    []index.Hit `json:"hits,omitempty"`
	Elapsed time.Duration
}

// Service is built once at startup and shared read-only by all requests.
type Service struct {
	retriever *Retriever
	generator *Generator
	topK      int
	log       *slog.Logger
}

func NewService(r *Retriever, g *Generator, topK int, log *slog.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{retriever: r, generator: g, topK: topK, log: log}
}

// Answer runs retrieval then generation. Every error is a *QueryError.
func (s *Service) Answer(ctx context.Context, query string) (Answer, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, &QueryError{Kind: KindInvalidInput, Err: errors.New("message is empty")}
	}

	hits, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		return Answer{}, &QueryError{Kind: KindRetrieval, Err: err}
	}

	if s.generator == nil || s.generator.llm == nil {
		return Answer{}, &QueryError{Kind: KindGeneration, Err: errors.New("language model unavailable")}
	}
	reply, err := s.generator.Generate(ctx, query, hits)
	if err != nil {
		return Answer{}, &QueryError{Kind: KindGeneration, Err: err}
	}

	a := Answer{Reply: reply, Hits: hits, Elapsed: time.Since(start)}
	s.log.Debug("answered query", "hits", len(hits), "elapsed_ms", a.Elapsed.Milliseconds())
	return a, nil
}
