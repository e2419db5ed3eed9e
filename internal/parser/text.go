package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/doctree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// TextParser handles plain text files. The bytes are decoded with each
// encoding in Encodings in turn until one succeeds.
type TextParser struct {
	Encodings []string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	content, err := decodeText(raw, p.encodings())
	if err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	paragraphs, err := splitParagraphs(content)
	if err != nil {
		return nil, err
	}
	// The whole file is one segment; the chunker prefers the paragraph
	// breaks kept here when it picks window boundaries.
	if len(paragraphs) > 0 {
		tree.Children = []*doctree.DocNode{{Text: strings.Join(paragraphs, "\n\n")}}
	}
	return tree, nil
}

func (p *TextParser) encodings() []string {
	if len(p.Encodings) == 0 {
		return DefaultOptions().TextEncodings
	}
	return p.Encodings
}

// decodeText returns raw decoded with the first encoding that accepts it.
func decodeText(raw []byte, names []string) (string, error) {
	var errs []string
	for _, name := range names {
		s, err := decodeWith(raw, name)
		if err == nil {
			return s, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", name, err))
	}
	return "", fmt.Errorf("%w (%s)", ErrUndecodable, strings.Join(errs, "; "))
}

func decodeWith(raw []byte, name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid utf-8 sequence")
		}
		return string(raw), nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

// splitParagraphs groups lines into blank-line separated paragraphs.
func splitParagraphs(content string) ([]string, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs, scanner.Err()
}
