package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/docqa/internal/index"
	"github.com/dgallion1/docqa/internal/llm"
)

const stuffInstructions = "Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer."

// BuildPrompt stuffs every hit into a single context block, in rank order.
func BuildPrompt(query string, hits []index.Hit) string {
	var sb strings.Builder
	sb.WriteString(stuffInstructions)
	sb.WriteString("\n\n")
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[Source: ")
		sb.WriteString(h.Chunk.Source)
		if h.Chunk.Page > 0 {
			fmt.Fprintf(&sb, ", page %d", h.Chunk.Page)
		}
		if h.Chunk.Section != "" {
			sb.WriteString(", section ")
			sb.WriteString(h.Chunk.Section)
		}
		sb.WriteString("]\n")
		sb.WriteString(h.Chunk.Text)
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\nHelpful Answer:")
	return sb.String()
}

// Generator answers a query from retrieved chunks with one completion.
type Generator struct {
	llm llm.Completer
}

func NewGenerator(c llm.Completer) *Generator {
	return &Generator{llm: c}
}

// Generate returns the model's raw text. Failures are returned as is.
func (g *Generator) Generate(ctx context.Context, query string, hits []index.Hit) (string, error) {
	return g.llm.Complete(ctx, BuildPrompt(query, hits))
}
