package measurement

import (
	"encoding/json"
	"testing"
	"time"

	"measurement-service/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"pending", StatusPending, true},
		{"Pendente", StatusPending, true},
		{"completed", StatusCompleted, true},
		{"CONCLUÍDA", StatusCompleted, true},
		{"concluida", StatusCompleted, true},
		{" concluído ", StatusCompleted, true},
		{"concluido", StatusCompleted, true},
		{"done", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeStatus_KeepsUnknownValues(t *testing.T) {
	assert.Equal(t, StatusCompleted, NormalizeStatus("Concluída"))
	assert.Equal(t, Status("cancelada"), NormalizeStatus("cancelada"))
}

func TestSpellings(t *testing.T) {
	assert.Contains(t, StatusCompleted.Spellings(), "concluída")
	assert.Contains(t, StatusPending.Spellings(), "pendente")
	assert.Nil(t, Status("archived").Spellings())

	spellings := StatusPending.Spellings()
	spellings[0] = "mutated"
	assert.Equal(t, "pending", StatusPending.Spellings()[0])
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	// 01:30 UTC on the 11th is still the 10th in BRT
	instant := time.Date(2024, 1, 11, 1, 30, 0, 0, time.UTC)

	start := StartOfDay(instant, loc)
	end := EndOfDay(instant, loc)

	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 1, 10, 23, 59, 59, 999000000, loc), end)
	assert.True(t, end.Sub(start) < 24*time.Hour)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-01-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDay("10/01/2024", time.UTC)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidDate, appErr.Code)
}

func TestParseScheduledAt(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)

	got, err := ParseScheduledAt("2024-01-10T14:30:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)))

	got, err = ParseScheduledAt("2024-01-10T14:30", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 14, 30, 0, 0, loc)))

	got, err = ParseScheduledAt("2024-01-10 14:30:15", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 1, 10, 14, 30, 15, 0, loc)))

	_, err = ParseScheduledAt("", loc)
	assert.True(t, apperror.IsValidation(err))

	_, err = ParseScheduledAt("amanhã", loc)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidDate, appErr.Code)
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var body struct {
		Height Optional[float64] `json:"height"`
		Width  Optional[float64] `json:"width"`
		Depth  Optional[float64] `json:"depth"`
		Other  Optional[uint]    `json:"product_id"`
	}
	err := json.Unmarshal([]byte(`{"height": 1.25, "width": null, "product_id": ""}`), &body)
	require.NoError(t, err)

	assert.True(t, body.Height.Set)
	require.NotNil(t, body.Height.Value)
	assert.Equal(t, 1.25, *body.Height.Value)

	assert.True(t, body.Width.Set)
	assert.Nil(t, body.Width.Value)

	assert.True(t, body.Other.Set)
	assert.Nil(t, body.Other.Value)

	assert.False(t, body.Depth.Set)
}
