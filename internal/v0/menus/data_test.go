package menus

import (
	"context"
	"errors"
	"testing"
	"time"

	"MenuAPI/internal/v0/dishes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thisWeek = "2026-01-05"

func TestRepository_CreateRecordsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data := f.fullMenu()
	fri := data[Friday]
	fri.EveningSnacks = []int64{f.snacks[1]}
	data[Friday] = fri

	m, err := f.repo.Create(ctx, thisWeek, data, StatusDraft, nil)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, StatusDraft, m.Status)
	assert.Nil(t, m.PublishedAt)

	ids, err := f.repo.UsageForWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Len(t, ids, len(TemplateColumns)+1)
	assert.Contains(t, ids, f.snacks[1])

	stored, err := f.repo.GetByWeek(ctx, thisWeek)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, f.byCat[dishes.CategoryChicken], stored.Data[Wednesday].Dishes[dishes.CategoryChicken])
	assert.Equal(t, []int64{f.snacks[1]}, stored.Data[Friday].EveningSnacks)
}

func TestRepository_CreateTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Create(ctx, thisWeek, NewMenuData(), StatusDraft, nil)
	require.NoError(t, err)

	_, err = f.repo.Create(ctx, thisWeek, NewMenuData(), StatusDraft, nil)
	assert.ErrorIs(t, err, ErrMenuExists)
}

func TestRepository_CreatePublishedRequiresCompleteMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Create(ctx, thisWeek, NewMenuData(), StatusPublished, nil)
	assert.ErrorIs(t, err, ErrMenuIncomplete)

	m, err := f.repo.GetByWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Nil(t, m, "nothing is stored when publishing is refused")

	m, err = f.repo.Create(ctx, thisWeek, f.fullMenu(), StatusPublished, nil)
	require.NoError(t, err)
	require.NotNil(t, m.PublishedAt)
	assert.True(t, m.PublishedAt.Equal(f.clock.Now().UTC()))
}

func TestRepository_HolidayDaysRecordNoUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	data := NewMenuData()
	data[Monday] = MenuDay{IsHoliday: true, Dishes: map[dishes.Category]int64{dishes.CategoryMain: f.byCat[dishes.CategoryMain]}}
	data[Tuesday].Dishes[dishes.CategoryDal] = f.byCat[dishes.CategoryDal]

	_, err := f.repo.Create(ctx, thisWeek, data, StatusDraft, nil)
	require.NoError(t, err)

	ids, err := f.repo.UsageForWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.byCat[dishes.CategoryDal]}, ids)
}

func TestRepository_UpdateReplacesUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := f.newUser(t, "editor@example.com").ID

	_, err := f.repo.Update(ctx, thisWeek, NewMenuData(), StatusDraft, nil)
	assert.ErrorIs(t, err, ErrMenuNotFound)

	_, err = f.repo.Create(ctx, thisWeek, f.fullMenu(), StatusDraft, nil)
	require.NoError(t, err)

	data := NewMenuData()
	data[Monday].Dishes[dishes.CategoryEgg] = f.byCat[dishes.CategoryEgg]
	m, err := f.repo.Update(ctx, thisWeek, data, StatusDraft, &userID)
	require.NoError(t, err)
	require.NotNil(t, m.UpdatedBy)
	assert.Equal(t, userID, *m.UpdatedBy)

	ids, err := f.repo.UsageForWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Equal(t, []int64{f.byCat[dishes.CategoryEgg]}, ids)

	_, err = f.repo.Update(ctx, thisWeek, data, StatusPublished, nil)
	assert.ErrorIs(t, err, ErrMenuIncomplete)
}

func TestRepository_PublishAndUnpublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Publish(ctx, thisWeek, nil)
	assert.ErrorIs(t, err, ErrMenuNotFound)

	_, err = f.repo.Create(ctx, thisWeek, NewMenuData(), StatusDraft, nil)
	require.NoError(t, err)

	_, err = f.repo.Publish(ctx, thisWeek, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMenuIncomplete)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 32)

	_, err = f.repo.Update(ctx, thisWeek, f.fullMenu(), StatusDraft, nil)
	require.NoError(t, err)

	published, err := f.repo.Publish(ctx, thisWeek, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt

	// republishing keeps the original publication time
	f.clock.Advance(time.Hour)
	again, err := f.repo.Publish(ctx, thisWeek, nil)
	require.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(first))

	draft, err := f.repo.Unpublish(ctx, thisWeek, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)

	stored, err := f.repo.GetByWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}

func TestRepository_EnsureDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, created, err := f.repo.EnsureDraft(ctx, thisWeek, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusDraft, m.Status)
	assert.Len(t, m.Data, len(Weekdays))

	again, created, err := f.repo.EnsureDraft(ctx, thisWeek, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
}

func TestRepository_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.repo.Delete(ctx, thisWeek), ErrMenuNotFound)

	_, err := f.repo.Create(ctx, thisWeek, f.fullMenu(), StatusDraft, nil)
	require.NoError(t, err)
	require.NoError(t, f.repo.Delete(ctx, thisWeek))

	m, err := f.repo.GetByWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Nil(t, m)

	ids, err := f.repo.UsageForWeek(ctx, thisWeek)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// the dishes are free to be deleted again
	ok, err := f.dishes.Delete(ctx, f.byCat[dishes.CategoryMain])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_ListByPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, wk := range []string{"2025-12-29", thisWeek, "2026-01-12", "2026-01-19"} {
		_, err := f.repo.Create(ctx, wk, NewMenuData(), StatusDraft, nil)
		require.NoError(t, err)
	}

	grouped, err := f.repo.ListByPeriod(ctx)
	require.NoError(t, err)

	require.Len(t, grouped.Past, 1)
	assert.Equal(t, "29-12-2025", grouped.Past[0].Week)
	require.NotNil(t, grouped.ThisWeek)
	assert.Equal(t, "05 Jan - 11 Jan 2026", grouped.ThisWeek.WeekRange)
	require.Len(t, grouped.Upcoming, 2)
	assert.Equal(t, "2026-01-19", grouped.Upcoming[0].WeekStartDate, "newest first")

	recent, err := f.repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2026-01-19", recent[0].WeekStartDate)
	assert.Equal(t, "2026-01-12", recent[1].WeekStartDate)
}

func TestRepository_LastUsedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.byCat[dishes.CategoryMain]

	early := NewMenuData()
	early[Monday].Dishes[dishes.CategoryMain] = main
	early[Monday].Dishes[dishes.CategorySide] = f.byCat[dishes.CategorySide]
	_, err := f.repo.Create(ctx, "2025-12-15", early, StatusDraft, nil)
	require.NoError(t, err)

	late := NewMenuData()
	late[Thursday].Dishes[dishes.CategoryMain] = main
	_, err = f.repo.Create(ctx, "2026-01-12", late, StatusDraft, nil)
	require.NoError(t, err)

	rows, err := f.repo.LastUsedRows(ctx)
	require.NoError(t, err)

	got := map[int64]string{}
	for _, r := range rows {
		got[r.DishID] = r.LastUsed
	}
	assert.Len(t, got, 2)
	assert.Equal(t, "2026-01-12", got[main])
	assert.Equal(t, "2025-12-15", got[f.byCat[dishes.CategorySide]])

	labels := LastUsedLabels(rows, f.clock.Now())
	assert.Equal(t, "in 1 week", labels[main])
	assert.Equal(t, "3 weeks ago", labels[f.byCat[dishes.CategorySide]])
}
