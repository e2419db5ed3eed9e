package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
)

var (
	// ErrUnsupported is returned by ForFile for extensions no parser handles.
	ErrUnsupported = errors.New("unsupported file type")

	// ErrUndecodable is returned when no configured text encoding can decode a file.
	ErrUndecodable = errors.New("no text encoding could decode file")
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// Options tune the parsers that have knobs.
type Options struct {
	// TextEncodings is the ordered fallback list for plain text files.
	TextEncodings []string
	// PDFFallbackPdftotext shells out to pdftotext when the Go reader fails.
	PDFFallbackPdftotext bool
}

// DefaultOptions mirrors the loader defaults: utf-8 first, then latin-1, then cp1252.
func DefaultOptions() Options {
	return Options{
		TextEncodings:        []string{"utf-8", "latin-1", "cp1252"},
		PDFFallbackPdftotext: true,
	}
}

var factories = map[string]func(Options) Parser{
	".txt":      func(o Options) Parser { return &TextParser{Encodings: o.TextEncodings} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".csv":      func(Options) Parser { return &CSVParser{} },
	".xlsx":     func(Options) Parser { return &XLSXParser{} },
	".xls":      func(Options) Parser { return &XLSParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	f, ok := factories[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return f(opts), nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	_, ok := factories[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// baseTitle strips the extension from a file name, case-insensitively.
func baseTitle(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// sectionBuilder nests text under the most recent heading of a lower level.
// Markdown, HTML and DOCX all produce heading-structured trees through it.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []sectionEntry
	text  strings.Builder
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{root: root, stack: []sectionEntry{{node: root}}}
}

// heading opens a new section at the given level (1 = top).
func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	n := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, sectionEntry{node: n, level: level})
}

// paragraph appends a block of body text to the current section.
func (b *sectionBuilder) paragraph(t string) {
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// finish returns the top-level sections. Headingless documents collapse into
// a single untitled node.
func (b *sectionBuilder) finish() []*doctree.DocNode {
	b.flush()
	if len(b.root.Children) == 0 {
		if b.root.Text == "" {
			return nil
		}
		return []*doctree.DocNode{{Text: b.root.Text}}
	}
	if b.root.Text != "" {
		// Text before the first heading becomes a leading untitled section.
		return append([]*doctree.DocNode{{Text: b.root.Text}}, b.root.Children...)
	}
	return b.root.Children
}
