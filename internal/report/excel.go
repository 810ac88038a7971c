// Package report renders measurement lists as spreadsheets.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"measurement-service/internal/lineitem"
	"measurement-service/internal/measurement"

	"github.com/xuri/excelize/v2"
)

// SheetName is the only sheet of the export
const SheetName = "Measurements"

// ExportHeader lists the export columns in order
var ExportHeader = []string{
	"ID",
	"Client",
	"Address",
	"Scheduled",
	"Items",
	"Area (m²)",
	"Note",
}

var columnWidths = []float64{8, 28, 40, 18, 50, 12, 40}

// CompletedExport builds an xlsx workbook with one row per record and a
// closing total area row. Dates are written in loc.
func CompletedExport(records []measurement.Record, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	for col, header := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, columnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var total float64
	for i, r := range records {
		row := i + 2
		values := []interface{}{
			r.ID,
			clientName(r),
			addressLine(r),
			r.ScheduledAt.In(loc).Format("2006-01-02 15:04"),
			ItemsSummary(r.Items),
			roundArea(r.Area),
			r.Note,
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		total += r.Area
	}

	totalRow := len(records) + 2
	if err := setRow(f, totalRow, []interface{}{"Total", nil, nil, nil, nil, roundArea(total)}); err != nil {
		return nil, err
	}
	first, _ := excelize.CoordinatesToCellName(1, totalRow)
	last, _ := excelize.CoordinatesToCellName(len(ExportHeader), totalRow)
	if err := f.SetCellStyle(SheetName, first, last, totalStyle); err != nil {
		return nil, fmt.Errorf("failed to set total style: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

// ItemsSummary renders items as "2x Glass (1.2x0.8); Mirror"
func ItemsSummary(items []lineitem.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = "#" + strconv.FormatUint(uint64(it.ID), 10)
		}
		if it.Quantity > 1 {
			name = strconv.Itoa(it.Quantity) + "x " + name
		}
		if it.HasDimensions() {
			name += fmt.Sprintf(" (%sx%s)", formatFloat(*it.Height), formatFloat(*it.Width))
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "; ")
}

func clientName(r measurement.Record) string {
	if r.Client == nil {
		return ""
	}
	return r.Client.Name
}

func addressLine(r measurement.Record) string {
	if r.Address == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{r.Address.Street, r.Address.Neighborhood, r.Address.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func roundArea(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
