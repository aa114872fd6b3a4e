package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// BatchResult summarizes one pass over a batch of units of work.
type BatchResult struct {
	Processed int
	Created   int
	Failed    int
}

// CarryOver rolls yesterday's unfinished instances forward to today as new
// detached instances. Sources are left untouched.
type CarryOver struct {
	store   *repository.Store
	workers int
}

func NewCarryOver(store *repository.Store, workers int) *CarryOver {
	if workers <= 0 {
		workers = 1
	}
	return &CarryOver{store: store, workers: workers}
}

// Run carries every incomplete instance dated the day before today. Each
// source can be carried at most once; repeating the run is harmless.
func (c *CarryOver) Run(ctx context.Context, today model.Date) (BatchResult, error) {
	log := logger.FromContext(ctx)
	yesterday := today.AddDays(-1)

	sources, err := c.store.Instances.ListIncompleteOn(ctx, yesterday)
	if err != nil {
		return BatchResult{}, err
	}

	byOwner := make(map[uuid.UUID][]model.Instance)
	var owners []uuid.UUID
	for _, src := range sources {
		if _, ok := byOwner[src.UserID]; !ok {
			owners = append(owners, src.UserID)
		}
		byOwner[src.UserID] = append(byOwner[src.UserID], src)
	}

	var processed, created, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, owner := range owners {
		owner := owner
		g.Go(func() error {
			for _, src := range byOwner[owner] {
				if ctx.Err() != nil {
					failed.Add(1)
					continue
				}
				ok, err := c.carry(ctx, src, today)
				if err != nil {
					failed.Add(1)
					log.Error("carry over failed",
						slog.String("instance_id", src.ID.String()),
						slog.String("owner_id", owner.String()),
						slog.String("error", err.Error()))
					continue
				}
				processed.Add(1)
				if ok {
					created.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{
		Processed: int(processed.Load()),
		Created:   int(created.Load()),
		Failed:    int(failed.Load()),
	}, nil
}

func (c *CarryOver) carry(ctx context.Context, src model.Instance, today model.Date) (bool, error) {
	var created bool
	err := c.store.Transaction(ctx, func(tx *repository.Store) error {
		srcID := src.ID
		next := model.Instance{
			UserID:         src.UserID,
			Title:          src.Title,
			Description:    src.Description,
			Date:           today,
			CarryOverCount: src.CarryOverCount + 1,
			CarriedFromID:  &srcID,
		}
		ok, err := tx.Instances.CreateIfAbsent(ctx, &next)
		if err != nil {
			return fmt.Errorf("carry %s: %w", src.ID, err)
		}
		if !ok {
			return nil
		}
		created = true
		return tx.Users.AdjustCounters(ctx, src.UserID, 1, 0)
	})
	return created, err
}
