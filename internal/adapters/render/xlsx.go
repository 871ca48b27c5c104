package render

import (
	"fmt"

	"github.com/mikey/project-digest/internal/core"
	"github.com/xuri/excelize/v2"
)

// XlsxRenderer writes summarized records as a single-sheet workbook
type XlsxRenderer struct{}

// NewXlsxRenderer creates a new XlsxRenderer
func NewXlsxRenderer() *XlsxRenderer {
	return &XlsxRenderer{}
}

// RenderTable returns the .xlsx bytes: a header row of field names and one
// row per record, columns in field order.
func (r *XlsxRenderer) RenderTable(records []core.SummarizedRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(core.AllFields))
	for i, field := range core.AllFields {
		header[i] = field.String()
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(core.AllFields))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 30); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	for i := range records {
		row := make([]interface{}, len(core.AllFields))
		for j, field := range core.AllFields {
			row[j] = records[i].Get(field)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
