package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"semclass/internal/domain"
)

// SheetName is the worksheet holding the wide classification table.
const SheetName = "Classifications"

// writeXLSX writes the wide layout into a single-sheet workbook.
func writeXLSX(w io.Writer, outcomes []domain.ItemOutcome, opts Options) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for r, row := range wideRows(outcomes, opts) {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}
