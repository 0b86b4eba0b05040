package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"buscontrol/internal/domain"
)

const (
	// ContentTypeXLSX is the media type of spreadsheet exports.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// SpreadsheetFilename is the suggested download name for spreadsheet exports.
	SpreadsheetFilename = "rutas_buses.xlsx"

	spreadsheetSheet = "Rutas"
)

var spreadsheetHeader = []any{
	"#", "ID", "Fecha Salida", "Ruta", "Conductor", "Cantidad Dinero", "Observaciones", "Estado",
}

// EncodeSpreadsheet writes records to a single-sheet XLSX workbook, one row
// per record in input order, using the same field formatting as the XML
// exports.
func EncodeSpreadsheet(records []domain.TripRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", spreadsheetSheet); err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}
	if err := f.SetSheetRow(spreadsheetSheet, "A1", &spreadsheetHeader); err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}
	if err := f.SetCellStyle(spreadsheetSheet, "A1", "H1", bold); err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}

	for i := range records {
		fields, err := formatRecord(MethodSpreadsheet, i, &records[i])
		if err != nil {
			return nil, err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet export: %w", err)
		}
		row := []any{
			i + 1,
			fields.ID,
			fields.DepartureTime,
			fields.RouteName,
			fields.DriverName,
			fields.Amount,
			fields.Notes,
			fields.Status,
		}
		if err := f.SetSheetRow(spreadsheetSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("spreadsheet export: %w", err)
		}
	}

	if err := f.SetColWidth(spreadsheetSheet, "B", "G", 24); err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("spreadsheet export: %w", err)
	}
	return buf.Bytes(), nil
}
