// Package embed maps text to dense vectors.
package embed

import (
	"context"
	"math"
)

// Embedder converts a batch of texts into vectors, one per input, in order.
// All vectors returned by one Embedder share a dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Normalize scales v to unit length in place. Zero vectors are left alone.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
