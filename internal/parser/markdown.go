package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	b := newSectionBuilder(tree.Title)

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, string(h.Text(src)))
			continue
		}
		b.paragraph(blockText(n, src))
	}

	tree.Children = b.finish()
	return tree, nil
}

// blockText gets the text content of a goldmark AST node. Leaf blocks
// (paragraphs, code blocks) carry their source lines; containers such as
// lists and blockquotes are walked child by child.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if s := blockText(c, src); s != "" {
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	}
	return strings.TrimSpace(buf.String())
}
