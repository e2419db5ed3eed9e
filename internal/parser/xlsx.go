package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/xuri/excelize/v2"
)

// XLSXParser handles Excel 2007+ workbooks, one section per non-empty sheet.
type XLSXParser struct{}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if node := sheetNode(sheet, rows); node != nil {
			tree.Children = append(tree.Children, node)
		}
	}
	return tree, nil
}

func sheetNode(name string, rows [][]string) *doctree.DocNode {
	children := tableNodes(rows)
	if len(children) == 0 {
		return nil
	}
	return &doctree.DocNode{Title: name, Children: children}
}
