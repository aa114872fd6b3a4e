package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrassLevel(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 10: 4}
	for completed, want := range cases {
		assert.Equal(t, want, GrassLevel(completed), "completed=%d", completed)
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, Rate(0, 0))
	assert.Equal(t, 33, Rate(1, 3))
	assert.Equal(t, 67, Rate(2, 3))
	assert.Equal(t, 100, Rate(4, 4))
}

func TestMonthlyListsOnlyActiveDays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-20")
	owner := env.owner(t)
	env.instance(t, owner, "2026-01-03", true)
	env.instance(t, owner, "2026-01-03", false)
	env.instance(t, owner, "2026-01-15", true)
	env.instance(t, owner, "2026-02-01", true)

	got, err := env.stats.Monthly(ctx, owner, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year)
	assert.Equal(t, 1, got.Month)
	require.Len(t, got.DailyStats, 2)
	assert.Equal(t, DayStats{Date: date("2026-01-03"), Total: 2, Completed: 1, Rate: 50}, got.DailyStats[0])
	assert.Equal(t, 100, got.DailyStats[1].Rate)

	_, err = env.stats.Monthly(ctx, owner, 2026, 0)
	require.NoError(t, err)
	_, err = env.stats.Monthly(ctx, owner, 2026, 13)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWeeklyBreaksDownByWeekday(t *testing.T) {
	ctx := context.Background()
	// Saturday; the week runs Sunday 01-04 through Saturday 01-10.
	env := newTestEnv(t, "2026-01-10")
	owner := env.owner(t)
	env.instance(t, owner, "2026-01-03", true)
	env.instance(t, owner, "2026-01-05", true)
	env.instance(t, owner, "2026-01-05", false)
	env.instance(t, owner, "2026-01-10", true)

	got, err := env.stats.Weekly(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-04", got.WeekStart.String())
	assert.Equal(t, "2026-01-10", got.WeekEnd.String())
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.Completed)
	assert.Equal(t, 67, got.Rate)

	require.Len(t, got.DailyBreakdown, 7)
	for i, wd := range got.DailyBreakdown {
		assert.Equal(t, i, wd.DayOfWeek)
	}
	assert.Equal(t, WeekdayStats{DayOfWeek: 1, Total: 2, Completed: 1, Rate: 50}, got.DailyBreakdown[1])
	assert.Equal(t, WeekdayStats{DayOfWeek: 6, Total: 1, Completed: 1, Rate: 100}, got.DailyBreakdown[6])
	assert.Zero(t, got.DailyBreakdown[0].Total)
}

func TestGrassCoversEveryDay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-10")
	owner := env.owner(t)
	for n := 0; n < 3; n++ {
		env.instance(t, owner, "2026-01-09", true)
	}
	env.instance(t, owner, "2026-01-10", false)

	got, err := env.stats.Grass(ctx, owner, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-10", got.StartDate.String())
	assert.Equal(t, "2026-01-10", got.EndDate.String())
	assert.Equal(t, 32, got.TotalDays)
	assert.Len(t, got.Data, 32)
	assert.Equal(t, 2, got.ActiveDays)

	assert.Equal(t, "2025-12-10", got.Data[0].Date.String())
	assert.Zero(t, got.Data[0].Level)
	yesterday := got.Data[30]
	assert.Equal(t, "2026-01-09", yesterday.Date.String())
	assert.Equal(t, 3, yesterday.Level)
	assert.Equal(t, 100, yesterday.Rate)
	assert.Zero(t, got.Data[31].Level)

	def, err := env.stats.Grass(ctx, owner, 0)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-10", def.StartDate.String())
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-10")

	empty, err := env.stats.Overview(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, OverviewStats{}, *empty)

	owner := env.owner(t)
	env.instance(t, owner, "2026-01-10", true)
	env.instance(t, owner, "2026-01-10", false)
	env.instance(t, owner, "2026-01-10", true)
	_, err = env.streak.Update(ctx, owner)
	require.NoError(t, err)

	got, err := env.stats.Overview(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalTodos)
	assert.Equal(t, 2, got.CompletedTodos)
	assert.Equal(t, 67, got.OverallRate)
	assert.Zero(t, got.CurrentStreak)
}
