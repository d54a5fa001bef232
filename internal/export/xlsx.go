package export

import (
	"github.com/xuri/excelize/v2"

	"banketl/internal/bank"
	"banketl/internal/etlerr"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Largest_banks"

// WriteXLSX writes t to a single-sheet workbook at path (no index column).
// Monetary columns are stored as numbers.
func WriteXLSX(t *bank.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return etlerr.Wrap(etlerr.ErrIO, err, "export: xlsx sheet")
	}

	for i, h := range t.Columns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return etlerr.Wrap(etlerr.ErrIO, err, "export: xlsx header")
		}
	}
	for r, vals := range t.Values() {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return etlerr.Wrapf(etlerr.ErrIO, err, "export: xlsx row %d", r)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return etlerr.Wrapf(etlerr.ErrIO, err, "export: save %s", path)
	}
	return nil
}
