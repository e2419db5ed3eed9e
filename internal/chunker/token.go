package chunker

import (
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
)

// EstimateTokens gives a rough token count at about 1.33 tokens per word.
// Used for index statistics only; windows are sized in runes.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TotalTokens sums EstimateTokens over a chunk set.
func TotalTokens(chunks []doctree.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += EstimateTokens(c.Text)
	}
	return total
}
