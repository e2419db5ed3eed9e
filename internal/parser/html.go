package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings h1-h6 open sections; script, style
// and page chrome are dropped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if t := findElement(doc, "title"); t != nil {
		if s := nodeText(t); s != "" {
			tree.Title = s
		}
	}

	b := newSectionBuilder(tree.Title)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.paragraph(strings.Join(strings.Fields(n.Data), " "))
			return
		}
		if n.Type == html.ElementNode {
			if level := htmlHeadingLevel(n.Data); level > 0 {
				b.heading(level, nodeText(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript":
				return
			case "p", "li", "td", "th", "blockquote", "pre":
				b.paragraph(nodeText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	tree.Children = b.finish()
	return tree, nil
}

func htmlHeadingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// findElement returns the first element with the given tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
