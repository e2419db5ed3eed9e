// Package index holds embedded chunks in memory and answers exact cosine
// nearest-neighbour queries. An Index is immutable once built.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/embed"
)

// ErrNoChunks is returned by Build when there is nothing to index.
var ErrNoChunks = errors.New("no chunks to index")

// Options control how Build calls the embedder.
type Options struct {
	BatchSize   int // Texts per Embed call.
	Concurrency int // Embed calls in flight.
}

func (o Options) normalize() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Hit is one search result.
type Hit struct {
	Chunk doctree.Chunk `json:"chunk"`
	Score float64       `json:"score"`
}

// Stats describe a built index.
type Stats struct {
	Chunks    int       `json:"chunks"`
	Sources   int       `json:"sources"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
	Tokens    int       `json:"estimated_tokens"`
	BuiltAt   time.Time `json:"built_at"`
	BuildTime string    `json:"build_time"`
}

// Index is safe for concurrent Search calls.
type Index struct {
	emb     embed.Embedder
	chunks  []doctree.Chunk
	vectors [][]float32 // unit length, or all zero
	stats   Stats
}

// Build embeds every chunk and returns the finished index. Any embedding
// failure aborts the build.
func Build(ctx context.Context, emb embed.Embedder, chunks []doctree.Chunk, opts Options) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	opts = opts.normalize()
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(chunks))
	type batchResult struct {
		from int
		vecs [][]float32
		err  error
	}
	nBatches := (len(chunks) + opts.BatchSize - 1) / opts.BatchSize
	results := make(chan batchResult, nBatches)
	sem := make(chan struct{}, opts.Concurrency)

	for from := 0; from < len(chunks); from += opts.BatchSize {
		to := min(from+opts.BatchSize, len(chunks))
		texts := make([]string, 0, to-from)
		for _, c := range chunks[from:to] {
			texts = append(texts, c.Text)
		}

		sem <- struct{}{}
		go func(from int, texts []string) {
			defer func() { <-sem }()
			vecs, err := emb.Embed(ctx, texts)
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			results <- batchResult{from: from, vecs: vecs, err: err}
		}(from, texts)
	}

	var firstErr error
	for range nBatches {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("embed chunks %d-%d: %w", r.from, r.from+opts.BatchSize-1, r.err)
				cancel()
			}
			continue
		}
		copy(vectors[r.from:], r.vecs)
	}
	if firstErr != nil {
		return nil, firstErr
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("embedder returned empty vectors")
	}
	sources := make(map[string]struct{})
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("chunk %d: vector dimension %d, want %d", i, len(v), dim)
		}
		// Copy so later mutation by the embedder cannot reach the index.
		u := append([]float32(nil), v...)
		embed.Normalize(u)
		vectors[i] = u
		sources[chunks[i].Source] = struct{}{}
	}

	owned := append([]doctree.Chunk(nil), chunks...)
	return &Index{
		emb:     emb,
		chunks:  owned,
		vectors: vectors,
		stats: Stats{
			Chunks:    len(owned),
			Sources:   len(sources),
			Dimension: dim,
			Model:     emb.Model(),
			Tokens:    chunker.TotalTokens(owned),
			BuiltAt:   time.Now().UTC(),
			BuildTime: time.Since(start).Round(time.Millisecond).String(),
		},
	}, nil
}

// Embedder returns the embedder the index was built with. Queries must be
// embedded with the same model.
func (ix *Index) Embedder() embed.Embedder { return ix.emb }

func (ix *Index) Len() int { return len(ix.chunks) }

func (ix *Index) Stats() Stats { return ix.stats }

// Search returns the min(k, Len()) chunks nearest to vec by cosine
// similarity, best first. Equal scores keep chunk order.
func (ix *Index) Search(vec []float32, k int) ([]Hit, error) {
	if len(vec) != ix.stats.Dimension {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vec), ix.stats.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	k = min(k, len(ix.chunks))

	q := append([]float32(nil), vec...)
	embed.Normalize(q)

	type scored struct {
		i     int
		score float64
	}
	all := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		all[i] = scored{i: i, score: dot(q, v)}
	}
	sort.SliceStable(all, func(a, b int) bool {
		return all[a].score > all[b].score
	})

	hits := make([]Hit, k)
	for j := range hits {
		s := all[j]
		if math.IsNaN(s.score) {
			s.score = 0
		}
		hits[j] = Hit{Chunk: ix.chunks[s.i], Score: s.score}
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
