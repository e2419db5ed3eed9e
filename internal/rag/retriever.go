package rag

import (
	"context"
	"fmt"

	"github.com/dgallion1/docqa/internal/index"
)

// DefaultTopK is used when neither the caller nor the config picks k.
const DefaultTopK = 5

// Retriever finds the chunks nearest to a query.
type Retriever struct {
	ix   *index.Index
	topK int
}

func NewRetriever(ix *index.Index, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{ix: ix, topK: topK}
}

// Retrieve embeds query with the index's own embedder and returns up to k
// hits, nearest first. k <= 0 uses the retriever's default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]index.Hit, error) {
	if r == nil || r.ix == nil {
		return nil, ErrIndexUnavailable
	}
	if k <= 0 {
		k = r.topK
	}
	vecs, err := r.ix.Embedder().Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	return r.ix.Search(vecs[0], k)
}
