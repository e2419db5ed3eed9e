package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashDimensions is the vector size of a zero-value Hash.
const DefaultHashDimensions = 512

// Hash is a local feature-hashing embedder. Lower-cased word tokens are
// hashed into a fixed number of signed buckets and the result is L2
// normalised. It needs no network and is fully deterministic.
type Hash struct {
	Dimensions int
}

func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &Hash{Dimensions: dims}
}

func (h *Hash) Model() string { return fmt.Sprintf("hash-%d", h.dims()) }

func (h *Hash) dims() int {
	if h.Dimensions <= 0 {
		return DefaultHashDimensions
	}
	return h.Dimensions
}

func (h *Hash) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hash) vector(text string) []float32 {
	dims := h.dims()
	v := make([]float32, dims)
	for _, tok := range tokenize(text) {
		f := fnv.New64a()
		f.Write([]byte(tok))
		sum := f.Sum64()
		bucket := int(sum % uint64(dims))
		// The top bit picks the sign so collisions tend to cancel.
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	Normalize(v)
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
