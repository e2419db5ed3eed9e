package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestForFile_Dispatch(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.xlsx", "*parser.XLSXParser"},
		{"a.xls", "*parser.XLSParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, DefaultOptions())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	for _, name := range []string{"image.png", "archive.zip", "noext"} {
		_, err := ForFile(name, DefaultOptions())
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
		if IsSupportedExtension(name) {
			t.Errorf("%s: expected unsupported", name)
		}
	}
}

func TestForFile_PassesOptions(t *testing.T) {
	p, err := ForFile("x.txt", Options{TextEncodings: []string{"cp1252"}})
	if err != nil {
		t.Fatal(err)
	}
	tp := p.(*TextParser)
	if len(tp.Encodings) != 1 || tp.Encodings[0] != "cp1252" {
		t.Errorf("expected encodings passed through, got %v", tp.Encodings)
	}

	p, _ = ForFile("x.pdf", Options{PDFFallbackPdftotext: false})
	if p.(*PDFParser).FallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestCSVParser_RowBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,colour\n")
	for i := 0; i < 25; i++ {
		b.WriteString("item,blue\n")
	}

	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(b.String()), "items.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "items" {
		t.Errorf("expected title %q, got %q", "items", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 row batches, got %d", len(tree.Children))
	}
	if tree.Children[0].Title != "Rows 2-21" {
		t.Errorf("expected first batch title %q, got %q", "Rows 2-21", tree.Children[0].Title)
	}
	if tree.Children[1].Title != "Rows 22-26" {
		t.Errorf("expected second batch title %q, got %q", "Rows 22-26", tree.Children[1].Title)
	}
	if !strings.Contains(tree.Children[0].Text, "name: item, colour: blue") {
		t.Errorf("expected header-labelled cells, got %q", tree.Children[0].Text)
	}
}

func TestCSVParser_HeaderOnlyAndEmpty(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader("a,b\n"), "h.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Text != "Headers: a, b" {
		t.Errorf("unexpected header-only result: %+v", tree.Children)
	}

	tree, err = p.Parse(strings.NewReader(""), "e.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}

func TestSheetNode_SkipsBlankSheets(t *testing.T) {
	if n := sheetNode("Empty", [][]string{{"", " "}}); n != nil {
		t.Errorf("expected nil for blank sheet, got %+v", n)
	}
	n := sheetNode("Data", [][]string{{"k", "v"}, {"sky", "blue"}})
	if n == nil || n.Title != "Data" || len(n.Children) != 1 {
		t.Fatalf("unexpected sheet node: %+v", n)
	}
	if !strings.Contains(n.Children[0].Text, "k: sky, v: blue") {
		t.Errorf("unexpected text %q", n.Children[0].Text)
	}
}

func TestHTMLParser_Sections(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head>
<body>
<nav>Home | About</nav>
<h1>Sky</h1>
<p>The sky is   blue.</p>
<h2>Night</h2>
<p>It is dark.</p>
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	tree, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Guide" {
		t.Errorf("expected title from <title>, got %q", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(tree.Children))
	}
	sky := tree.Children[0]
	if sky.Title != "Sky" || sky.Text != "The sky is blue." {
		t.Errorf("unexpected h1 node: %q / %q", sky.Title, sky.Text)
	}
	if len(sky.Children) != 1 || sky.Children[0].Text != "It is dark." {
		t.Fatalf("unexpected h2 children: %+v", sky.Children)
	}

	segs := tree.Segments("guide.html")
	for _, s := range segs {
		if strings.Contains(s.Text, "Home") || strings.Contains(s.Text, "var x") {
			t.Errorf("chrome leaked into segment: %q", s.Text)
		}
	}
	if len(segs) != 2 || segs[1].Section != "Sky > Night" {
		t.Errorf("unexpected segments: %+v", segs)
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *XLSXParser:
		return "*parser.XLSXParser"
	case *XLSParser:
		return "*parser.XLSParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	}
	return "unknown"
}
