package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/sheet row (0 if N/A)
	Children []*DocNode // Subsections
}

// Segment is extracted text plus the provenance of where it came from.
type Segment struct {
	Text    string `json:"text"`
	Source  string `json:"source"`            // Origin file name
	Page    int    `json:"page,omitempty"`    // 1-based page, 0 if N/A
	Section string `json:"section,omitempty"` // Heading path joined with " > "
}

// Chunk is a bounded text window cut from a Segment, the unit of retrieval.
type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"index"` // Position across the whole ingested collection
	Text    string `json:"text"`
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
	Section string `json:"section,omitempty"`
	Start   int    `json:"start"` // Rune offset of the window within its segment
	End     int    `json:"end"`   // Exclusive rune offset
}

// Segments flattens the tree into text segments in document order.
// Nodes without text contribute nothing; their titles become part of the
// section path of their descendants.
func (t *DocTree) Segments(source string) []Segment {
	var out []Segment
	var walk func(nodes []*DocNode, path []string)
	walk = func(nodes []*DocNode, path []string) {
		for _, n := range nodes {
			p := path
			if n.Title != "" {
				p = append(append([]string(nil), path...), n.Title)
			}
			if text := strings.TrimSpace(n.Text); text != "" {
				out = append(out, Segment{
					Text:    text,
					Source:  source,
					Page:    n.Page,
					Section: strings.Join(p, " > "),
				})
			}
			walk(n.Children, p)
		}
	}
	walk(t.Children, nil)
	return out
}
