package verification

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteReadinessReport writes the derived checklist to an xlsx workbook.
// Ops uses it to review an organization's document readiness offline.
func WriteReadinessReport(items []ChecklistItem, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Readiness"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Document", "Required", "Status", "Uploaded Files"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "D1", headerStyle)
	}

	for row, item := range items {
		required := "optional"
		if item.Required {
			required = "required"
		}
		values := []interface{}{
			item.Label,
			required,
			string(item.DerivedStatus),
			len(item.LinkedDocuments),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "D", 16)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write readiness report: %w", err)
	}
	return nil
}
