package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// openXLSX reads the first sheet of a workbook. Trailing sheets are ignored;
// the exports this tool ingests carry one data sheet.
func openXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx %s has no header row", path)
	}
	return &Table{header: rows[0], rows: rows[1:]}, nil
}
