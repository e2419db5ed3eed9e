package rag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingCompleter captures the prompt it was given.
type recordingCompleter struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (c *recordingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.calls++
	c.prompt = prompt
	return c.reply, c.err
}

func (c *recordingCompleter) Model() string { return "recording" }

// flakyEmbedder works while building the index and fails afterwards.
type flakyEmbedder struct {
	embed.Embedder
	broken atomic.Bool
}

func (f *flakyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.broken.Load() {
		return nil, errors.New("embedding backend down")
	}
	return f.Embedder.Embed(ctx, texts)
}

func buildIndex(t *testing.T, emb embed.Embedder, texts ...string) *index.Index {
	t.Helper()
	chunks := make([]doctree.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = doctree.Chunk{Index: i, Text: txt, Source: "doc.txt"}
	}
	ix, err := index.Build(context.Background(), emb, chunks, index.Options{})
	require.NoError(t, err)
	return ix
}

func TestBuildPrompt(t *testing.T) {
	hits := []index.Hit{
		{Chunk: doctree.Chunk{Text: "The sky is blue.", Source: "sky.txt"}},
		{Chunk: doctree.Chunk{Text: "Grass is green.", Source: "report.pdf", Page: 3, Section: "Nature"}},
	}
	p := BuildPrompt("What color is the sky?", hits)

	assert.True(t, strings.HasPrefix(p, stuffInstructions))
	assert.Contains(t, p, "[Source: sky.txt]\nThe sky is blue.")
	assert.Contains(t, p, "[Source: report.pdf, page 3, section Nature]\nGrass is green.")
	assert.Less(t, strings.Index(p, "The sky is blue."), strings.Index(p, "Grass is green."))
	assert.True(t, strings.HasSuffix(p, "Question: What color is the sky?\nHelpful Answer:"))
}

func TestBuildPrompt_NoHits(t *testing.T) {
	p := BuildPrompt("q", nil)
	assert.Contains(t, p, "Question: q")
}

func TestRetriever_DefaultK(t *testing.T) {
	ix := buildIndex(t, embed.NewHash(64), "a", "b", "c", "d", "e", "f", "g")
	r := NewRetriever(ix, 0)

	hits, err := r.Retrieve(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Len(t, hits, DefaultTopK)

	hits, err = r.Retrieve(context.Background(), "a", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Chunk.Text)
}

func TestService_Answer(t *testing.T) {
	ix := buildIndex(t, embed.NewHash(128), "The sky is blue.", "Revenue grew.")
	llm := &recordingCompleter{reply: "The sky is blue."}
	svc := NewService(NewRetriever(ix, 5), NewGenerator(llm), 5, testLogger())

	a, err := svc.Answer(context.Background(), "  What color is the sky?  ")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", a.Reply)
	assert.Len(t, a.Hits, 2)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.prompt, "Question: What color is the sky?")
	assert.Contains(t, llm.prompt, "The sky is blue.")
}

func TestService_ErrorKinds(t *testing.T) {
	hash := embed.NewHash(64)
	flaky := &flakyEmbedder{Embedder: hash}
	ix := buildIndex(t, flaky, "The sky is blue.")
	flaky.broken.Store(true)

	genErr := errors.New("model overloaded")

	tests := []struct {
		name  string
		svc   *Service
		query string
		kind  Kind
	}{
		{
			name:  "empty message",
			svc:   NewService(NewRetriever(buildIndex(t, hash, "x"), 5), NewGenerator(&recordingCompleter{}), 5, testLogger()),
			query: "   ",
			kind:  KindInvalidInput,
		},
		{
			name:  "no index",
			svc:   NewService(NewRetriever(nil, 5), NewGenerator(&recordingCompleter{}), 5, testLogger()),
			query: "q",
			kind:  KindRetrieval,
		},
		{
			name:  "embedding fails",
			svc:   NewService(NewRetriever(ix, 5), NewGenerator(&recordingCompleter{}), 5, testLogger()),
			query: "q",
			kind:  KindRetrieval,
		},
		{
			name:  "generation fails",
			svc:   NewService(NewRetriever(buildIndex(t, hash, "x"), 5), NewGenerator(&recordingCompleter{err: genErr}), 5, testLogger()),
			query: "q",
			kind:  KindGeneration,
		},
		{
			name:  "no model",
			svc:   NewService(NewRetriever(buildIndex(t, hash, "x"), 5), nil, 5, testLogger()),
			query: "q",
			kind:  KindGeneration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Answer(context.Background(), tt.query)
			require.Error(t, err)
			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.kind, qe.Kind)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestService_GenerationErrorIsWrapped(t *testing.T) {
	genErr := errors.New("model overloaded")
	ix := buildIndex(t, embed.NewHash(32), "x")
	svc := NewService(NewRetriever(ix, 1), NewGenerator(&recordingCompleter{err: genErr}), 1, testLogger())

	_, err := svc.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, genErr)
	assert.Equal(t, "generation failed: model overloaded", err.Error())
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
}
