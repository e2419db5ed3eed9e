package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
)

// rowBatchSize groups spreadsheet rows into nodes of manageable size.
const rowBatchSize = 20

// CSVParser handles CSV files. The first record is the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	tree.Children = tableNodes(records)
	return tree, nil
}

// tableNodes renders a header-first table as batches of "header: cell" rows.
// Spreadsheet parsers share it, one call per sheet.
func tableNodes(records [][]string) []*doctree.DocNode {
	records = dropEmptyRows(records)
	if len(records) == 0 {
		return nil
	}
	headers := records[0]
	rows := records[1:]
	if len(rows) == 0 {
		return []*doctree.DocNode{{Text: "Headers: " + strings.Join(headers, ", ")}}
	}

	var nodes []*doctree.DocNode
	for i := 0; i < len(rows); i += rowBatchSize {
		end := min(i+rowBatchSize, len(rows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}

		nodes = append(nodes, &doctree.DocNode{
			// 1-indexed, header is row 1.
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
			Text:  text.String(),
		})
	}
	return nodes
}

func dropEmptyRows(records [][]string) [][]string {
	out := records[:0:0]
	for _, row := range records {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
