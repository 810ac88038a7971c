package report

import (
	"bytes"
	"testing"
	"time"

	"measurement-service/internal/lineitem"
	"measurement-service/internal/measurement"
	"measurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr(v float64) *float64 { return &v }

func TestCompletedExport(t *testing.T) {
	records := []measurement.Record{
		{
			ID:          5,
			ScheduledAt: time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
			Note:        "sala",
			Items: []lineitem.Item{
				{ID: 1, Name: "Vidro", Quantity: 2, Height: ptr(1.5), Width: ptr(2)},
				{ID: 2, Quantity: 1},
			},
			Area:    6,
			Client:  &model.Client{Name: "Maria"},
			Address: &model.Address{Street: "Rua A, 10", City: "Recife"},
		},
		{
			ID:          6,
			ScheduledAt: time.Date(2024, 1, 11, 9, 30, 0, 0, time.UTC),
			Area:        1.25,
		},
	}

	data, err := CompletedExport(records, time.UTC)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"5", "Maria", "Rua A, 10, Recife", "2024-01-10 14:00", "2x Vidro (1.5x2); #2", "6", "sala"}, rows[1])
	assert.Equal(t, "6", rows[2][0])
	assert.Equal(t, "2024-01-11 09:30", rows[2][3])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "7.25", rows[3][5])

	styleID, err := f.GetCellStyle(SheetName, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)
}

func TestCompletedExport_Empty(t *testing.T) {
	data, err := CompletedExport(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
	assert.Equal(t, "0", rows[1][5])
}

func TestItemsSummary(t *testing.T) {
	assert.Equal(t, "", ItemsSummary(nil))
	assert.Equal(t, "Espelho", ItemsSummary([]lineitem.Item{{ID: 3, Name: "Espelho", Quantity: 1}}))
}
