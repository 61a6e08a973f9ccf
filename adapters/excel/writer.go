// Package excel exports rendered summary tables to .xlsx workbooks.
package excel

import (
	"fmt"
	"log"
	"sort"
	"time"

	"taxsim/domain/tables"
	"taxsim/ports"

	"github.com/xuri/excelize/v2"
)

// ResultWriter writes a tabular result set to an Excel workbook, one sheet
// per summary table.
type ResultWriter struct{}

// NewResultWriter creates a new result writer.
func NewResultWriter() *ResultWriter {
	return &ResultWriter{}
}

var _ ports.ResultExporter = (*ResultWriter)(nil)

// Export writes the result set to path. Sheets are created in stable
// table-ID order so repeated exports of the same run are identical.
func (w *ResultWriter) Export(path string, year int, results tables.ResultSet) error {
	startTime := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for sheetIdx, id := range ids {
		t := results[tables.ID(id)]
		sheet := id
		if sheetIdx == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to rename first sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
		}

		header := append([]interface{}{fmt.Sprintf("row_%d", year)}, toInterfaces(t.Columns)...)
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", sheet, err)
		}

		for i, rowName := range t.RowNames {
			row := make([]interface{}, 0, len(t.Columns)+1)
			row = append(row, rowName)
			for _, v := range t.Values[i] {
				row = append(row, v)
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell for %s row %d: %w", sheet, i, err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %s in %s: %w", rowName, sheet, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	log.Printf("[ResultWriter] wrote %d tables to %s in %.2fms",
		len(results), path, float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
