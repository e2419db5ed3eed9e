package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/extrame/xls"
)

// XLSParser handles legacy BIFF .xls workbooks.
type XLSParser struct{}

func (p *XLSParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return nil, fmt.Errorf("open xls: no workbook stream")
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		if node := sheetNode(sheet.Name, xlsRows(sheet)); node != nil {
			tree.Children = append(tree.Children, node)
		}
	}
	return tree, nil
}

func xlsRows(sheet *xls.WorkSheet) [][]string {
	var (
		present []*xls.Row
		width   int
	)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		if row := sheetRow(sheet, i); row != nil {
			present = append(present, row)
			width = max(width, row.LastCol())
		}
	}

	rows := make([][]string, 0, len(present))
	for _, row := range present {
		// LastCol is one past the last used column. Rows that only exist
		// through their cells report 0, so they get the sheet width.
		n := row.LastCol()
		if n == 0 {
			n = width
		}
		cells := make([]string, 0, n)
		for c := 0; c < n; c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows
}

// sheetRow returns nil for rows the sheet has no record of. xls panics on
// those instead.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
