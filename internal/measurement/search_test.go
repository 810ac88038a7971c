package measurement_test

import (
	"context"
	"testing"
	"time"

	"measurement-service/internal/apperror"
	"measurement-service/internal/lineitem"
	"measurement-service/internal/measurement"
	"measurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []measurement.Record) []uint {
	out := make([]uint, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestSearch_LegacyStatusSpellings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := f.create(t, measurement.CreateInput{})
	canonical := f.create(t, measurement.CreateInput{})
	pending := f.create(t, measurement.CreateInput{})
	require.NoError(t, f.store.Update(ctx, 1, legacy.ID, map[string]interface{}{model.ColumnStatus: "Concluída"}))
	require.NoError(t, f.store.Update(ctx, 1, canonical.ID, map[string]interface{}{model.ColumnStatus: "completed"}))
	require.NoError(t, f.store.Update(ctx, 1, pending.ID, map[string]interface{}{model.ColumnStatus: "pendente"}))

	completed, err := f.service.Search(ctx, 1, measurement.Query{Status: measurement.StatusCompleted})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{legacy.ID, canonical.ID}, ids(completed))
	for _, r := range completed {
		assert.Equal(t, measurement.StatusCompleted, r.Status)
	}

	open, err := f.service.Search(ctx, 1, measurement.Query{Status: measurement.StatusPending})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)
	assert.Equal(t, measurement.StatusPending, open[0].Status)
}

func TestSearch_TermIgnoresCaseAndAccents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.create(t, measurement.CreateInput{Items: []lineitem.Item{{ID: 31, Quantity: 1}}})

	for _, term := range []string{"CONCEICAO", "conceição", "sao bento", "RECIFE", "espelho"} {
		t.Run(term, func(t *testing.T) {
			found, err := f.service.Search(ctx, 1, measurement.Query{Term: term})
			require.NoError(t, err)
			assert.Equal(t, []uint{r.ID}, ids(found))
		})
	}

	none, err := f.service.Search(ctx, 1, measurement.Query{Term: "natal"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearch_DayBoundsAreInclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := f.create(t, measurement.CreateInput{ScheduledAt: time.Date(2024, 1, 10, 23, 50, 0, 0, time.UTC)})
	f.create(t, measurement.CreateInput{ScheduledAt: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)})

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	found, err := f.service.Search(ctx, 1, measurement.Query{From: &day, To: &day})
	require.NoError(t, err)
	assert.Equal(t, []uint{late.ID}, ids(found))

	next := day.Add(24 * time.Hour)
	found, err = f.service.Search(ctx, 1, measurement.Query{From: &next})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NotEqual(t, late.ID, found[0].ID)
}

func TestSearch_NeverCrossesTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, measurement.CreateInput{Note: "X"})
	foreign, err := f.service.Create(ctx, 2, measurement.CreateInput{
		ClientID:    20,
		AddressID:   21,
		ScheduledAt: today.Add(time.Hour),
	})
	require.NoError(t, err)

	found, err := f.service.Search(ctx, 2, measurement.Query{Term: "maria"})
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := f.service.Search(ctx, 2, measurement.Query{})
	require.NoError(t, err)
	assert.Equal(t, []uint{foreign.ID}, ids(all))

	none, err := f.service.Search(ctx, 0, measurement.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearch_NewestCreatedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, measurement.CreateInput{})
	b := f.create(t, measurement.CreateInput{})
	c := f.create(t, measurement.CreateInput{})
	f.store.SetCreatedAt(a.ID, time.Now().Add(time.Hour))

	found, err := f.service.Search(ctx, 1, measurement.Query{})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, c.ID, b.ID}, ids(found))
}

func TestSearch_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Search(context.Background(), 1, measurement.Query{Status: "archived"})
	requireCode(t, err, apperror.KindValidation, apperror.CodeInvalidStatus)
}
