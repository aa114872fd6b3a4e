package service

import (
	"context"

	"github.com/google/uuid"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

const defaultStreakLookback = 30

// StreakCalculator derives the current run of fully completed days and
// ratchets the best streak.
type StreakCalculator struct {
	store    *repository.Store
	cal      Calendar
	lookback int
}

func NewStreakCalculator(store *repository.Store, cal Calendar, lookbackDays int) *StreakCalculator {
	if lookbackDays <= 0 {
		lookbackDays = defaultStreakLookback
	}
	return &StreakCalculator{store: store, cal: cal, lookback: lookbackDays}
}

// Update recomputes the owner's streak as of today and returns it.
func (s *StreakCalculator) Update(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return s.UpdateAsOf(ctx, ownerID, s.cal.Today())
}

// UpdateAsOf recomputes the owner's streak as of day.
func (s *StreakCalculator) UpdateAsOf(ctx context.Context, ownerID uuid.UUID, day model.Date) (int, error) {
	var streak int
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		streak, err = s.refresh(ctx, tx, ownerID, day)
		return err
	})
	return streak, err
}

// refresh runs inside the caller's transaction.
func (s *StreakCalculator) refresh(ctx context.Context, tx *repository.Store, ownerID uuid.UUID, day model.Date) (int, error) {
	from := day.AddDays(-s.lookback)
	counts, err := tx.Instances.CountByDay(ctx, ownerID, from, day)
	if err != nil {
		return 0, err
	}
	streak := ComputeStreak(counts, from, day)
	if err := tx.Users.SetStreak(ctx, ownerID, streak); err != nil {
		return 0, err
	}
	return streak, nil
}

// ComputeStreak walks backward from today to from. Days without instances
// are skipped, fully completed days extend the streak and the first partially
// completed day ends it.
func ComputeStreak(counts []repository.DayCount, from, today model.Date) int {
	byDay := make(map[string]repository.DayCount, len(counts))
	for _, c := range counts {
		byDay[c.Date.String()] = c
	}

	streak := 0
	for day := today; !day.Before(from); day = day.AddDays(-1) {
		c, ok := byDay[day.String()]
		if !ok || c.Total == 0 {
			continue
		}
		if c.Completed < c.Total {
			break
		}
		streak++
	}
	return streak
}
