package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/repository"
)

func TestComputeStreak(t *testing.T) {
	today := date("2026-01-20")
	from := today.AddDays(-30)
	count := func(offset, total, completed int) repository.DayCount {
		return repository.DayCount{Date: today.AddDays(offset), Total: total, Completed: completed}
	}

	tests := []struct {
		name   string
		counts []repository.DayCount
		want   int
	}{
		{"no activity", nil, 0},
		{
			"empty day is skipped, partial day stops",
			[]repository.DayCount{
				count(-6, 2, 1),
				count(-4, 1, 1), count(-3, 2, 2), count(-2, 1, 1), count(-1, 3, 3),
			},
			4,
		},
		{"partial today", []repository.DayCount{count(-1, 1, 1), count(0, 2, 1)}, 0},
		{"full today", []repository.DayCount{count(-1, 1, 1), count(0, 2, 2)}, 2},
		{"outside lookback", []repository.DayCount{count(-31, 1, 1), count(-1, 1, 1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(tt.counts, from, today))
		})
	}
}

func TestStreakUpdateRatchetsBest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "2026-01-20")
	owner := env.owner(t)

	for _, d := range []string{"2026-01-16", "2026-01-17", "2026-01-18", "2026-01-19"} {
		env.instance(t, owner, d, true)
	}
	env.instance(t, owner, "2026-01-14", false)

	streak, err := env.streak.Update(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)
	user := env.user(t, owner)
	assert.Equal(t, 4, user.CurrentStreak)
	assert.Equal(t, 4, user.BestStreak)

	env.instance(t, owner, "2026-01-20", false)
	streak, err = env.streak.Update(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, streak)
	user = env.user(t, owner)
	assert.Zero(t, user.CurrentStreak)
	assert.Equal(t, 4, user.BestStreak)
}
