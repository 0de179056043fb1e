package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures which sheet of a workbook is read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadClaimsXLSX parses a claims workbook laid out like the CSV form: a
// header row naming the claim columns, then one extracted field per row.
func ReadClaimsXLSX(ctx context.Context, path string, opts XLSXOptions) ([]ClaimInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("ingest: xlsx sheet is empty")
	}

	idx, err := indexHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	acc := newClaimAccumulator()
	for i, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: context cancelled")
		}

		cells := rowToStrings(row)
		if allEmpty(cells) {
			continue
		}
		if err := acc.addRow(idx, cells); err != nil {
			return nil, eris.Wrapf(err, "ingest: xlsx row %d", i+2)
		}
	}

	return acc.claims(), nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
