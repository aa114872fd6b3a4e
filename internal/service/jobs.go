package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// Ledger names of the batch jobs.
const (
	JobCarryOver  = "carry_over"
	JobGenerate   = "generate"
	JobStreaks    = "streaks"
	JobDeactivate = "deactivate"
)

// JobReport describes one ledgered job execution.
type JobReport struct {
	Job       string
	Day       model.Date
	Skipped   bool
	Processed int
	Created   int
	Failed    int
}

// Jobs orchestrates the daily batches. Every job claims a (job, day) row in
// the ledger first, so replicas and repeated triggers run it at most once per
// calendar day. Failures of single units are logged and counted; they never
// abort the rest of the batch.
type Jobs struct {
	store     *repository.Store
	gen       *Generator
	carry     *CarryOver
	streak    *StreakCalculator
	cal       Calendar
	log       *slog.Logger
	workers   int
	lookahead int
	claimTTL  time.Duration
}

const defaultClaimTTL = time.Hour

type JobsConfig struct {
	Workers       int
	LookaheadDays int
	// ClaimTTL is how long a running claim blocks other triggers before it
	// is considered abandoned.
	ClaimTTL time.Duration
}

func NewJobs(store *repository.Store, gen *Generator, carry *CarryOver, streak *StreakCalculator, cal Calendar, log *slog.Logger, cfg JobsConfig) *Jobs {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = defaultLookahead
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = defaultClaimTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Jobs{
		store:     store,
		gen:       gen,
		carry:     carry,
		streak:    streak,
		cal:       cal,
		log:       log,
		workers:   cfg.Workers,
		lookahead: cfg.LookaheadDays,
		claimTTL:  cfg.ClaimTTL,
	}
}

// RunDaily is the midnight batch: carry-over, then generation for every
// active template, then the streak refresh for every owner with todos.
func (j *Jobs) RunDaily(ctx context.Context, day model.Date) ([]JobReport, error) {
	steps := []struct {
		name string
		fn   func(context.Context, model.Date) (BatchResult, error)
	}{
		{JobCarryOver, j.carry.Run},
		{JobGenerate, j.generateAll},
		{JobStreaks, j.refreshStreaks},
	}

	var (
		reports []JobReport
		errs    []error
	)
	for _, step := range steps {
		report, err := j.runLedgered(ctx, step.name, day, step.fn)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// RunExpire deactivates templates whose end date passed before day.
func (j *Jobs) RunExpire(ctx context.Context, day model.Date) (JobReport, error) {
	return j.runLedgered(ctx, JobDeactivate, day, func(ctx context.Context, day model.Date) (BatchResult, error) {
		n, err := j.store.Templates.DeactivateEndedBefore(ctx, day)
		if err != nil {
			return BatchResult{}, err
		}
		return BatchResult{Processed: int(n)}, nil
	})
}

func (j *Jobs) runLedgered(ctx context.Context, name string, day model.Date, fn func(context.Context, model.Date) (BatchResult, error)) (JobReport, error) {
	report := JobReport{Job: name, Day: day}
	log := j.log.With(slog.String("job", name), slog.String("day", day.String()))

	now := j.cal.Now()
	run, ok, err := j.store.JobRuns.Claim(ctx, name, day, now, now.Add(-j.claimTTL))
	if err != nil {
		log.Error("claim job failed", slog.String("error", err.Error()))
		return report, err
	}
	if !ok {
		log.Info("job already claimed for this day, skipping")
		report.Skipped = true
		return report, nil
	}

	log = log.With(slog.String("run_id", run.ID.String()))
	log.Info("job started")

	res, err := fn(logger.WithContext(ctx, log), day)
	if err != nil {
		log.Error("job failed", slog.String("error", err.Error()))
		if relErr := j.store.JobRuns.Release(context.WithoutCancel(ctx), run); relErr != nil {
			log.Error("release job claim failed", slog.String("error", relErr.Error()))
		}
		return report, fmt.Errorf("%s: %w", name, err)
	}

	report.Processed, report.Created, report.Failed = res.Processed, res.Created, res.Failed
	if err := j.store.JobRuns.Finish(context.WithoutCancel(ctx), run, res.Processed, res.Failed, j.cal.Now()); err != nil {
		log.Error("finish job failed", slog.String("error", err.Error()))
	}
	log.Info("job finished",
		slog.Int("processed", res.Processed),
		slog.Int("created", res.Created),
		slog.Int("failed", res.Failed))
	return report, nil
}

func (j *Jobs) generateAll(ctx context.Context, day model.Date) (BatchResult, error) {
	log := logger.FromContext(ctx)
	templates, err := j.store.Templates.ListActiveRefs(ctx, day)
	if err != nil {
		return BatchResult{}, err
	}

	var processed, created, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(j.workers)
	for _, tmpl := range templates {
		tmpl := tmpl
		g.Go(func() error {
			instances, err := j.gen.GenerateFrom(ctx, tmpl.ID, tmpl.UserID, day, j.lookahead)
			if err != nil {
				failed.Add(1)
				log.Error("generate instances failed",
					slog.String("template_id", tmpl.ID.String()),
					slog.String("owner_id", tmpl.UserID.String()),
					slog.String("error", err.Error()))
				return nil
			}
			processed.Add(1)
			created.Add(int64(len(instances)))
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{Processed: int(processed.Load()), Created: int(created.Load()), Failed: int(failed.Load())}, nil
}

func (j *Jobs) refreshStreaks(ctx context.Context, day model.Date) (BatchResult, error) {
	log := logger.FromContext(ctx)
	owners, err := j.store.Users.ListWithTodos(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	var processed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(j.workers)
	for _, owner := range owners {
		owner := owner
		g.Go(func() error {
			if _, err := j.streak.UpdateAsOf(ctx, owner, day); err != nil {
				failed.Add(1)
				log.Error("streak refresh failed",
					slog.String("owner_id", owner.String()),
					slog.String("error", err.Error()))
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{Processed: int(processed.Load()), Failed: int(failed.Load())}, nil
}
