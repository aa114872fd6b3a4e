package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/model"
)

// JobRunRepository is the batch job ledger keyed by (job, calendar day).
type JobRunRepository struct {
	db *gorm.DB
}

func NewJobRunRepository(db *gorm.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// Claim records that job is starting for day. It returns false when another
// run already holds the claim; the unique index decides the race. A claim
// still running since before staleBefore belongs to a run that died and is
// taken over.
func (r *JobRunRepository) Claim(ctx context.Context, job string, day model.Date, now, staleBefore time.Time) (*model.JobRun, bool, error) {
	now = now.UTC()
	run := model.JobRun{Job: job, RunDate: day, Status: model.JobRunning, StartedAt: now}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&run)
	if res.Error != nil {
		return nil, false, fmt.Errorf("claim job %s: %w", job, res.Error)
	}
	if res.RowsAffected == 1 {
		return &run, true, nil
	}

	res = r.db.WithContext(ctx).Model(&model.JobRun{}).
		Where("job = ? AND run_date = ? AND status = ? AND started_at < ?", job, day, model.JobRunning, staleBefore.UTC()).
		Update("started_at", now)
	if res.Error != nil {
		return nil, false, fmt.Errorf("take over job %s: %w", job, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	stale, err := r.Find(ctx, job, day)
	if err != nil {
		return nil, false, fmt.Errorf("take over job %s: %w", job, err)
	}
	return stale, true, nil
}

func (r *JobRunRepository) Finish(ctx context.Context, run *model.JobRun, processed, failed int, now time.Time) error {
	run.Status = model.JobFinished
	run.Processed = processed
	run.Failed = failed
	run.FinishedAt = &now
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("finish job %s: %w", run.Job, err)
	}
	return nil
}

// Release drops a claim so a later trigger can retry the job for that day.
func (r *JobRunRepository) Release(ctx context.Context, run *model.JobRun) error {
	if err := r.db.WithContext(ctx).Delete(run).Error; err != nil {
		return fmt.Errorf("release job %s: %w", run.Job, err)
	}
	return nil
}

func (r *JobRunRepository) Find(ctx context.Context, job string, day model.Date) (*model.JobRun, error) {
	var run model.JobRun
	if err := r.db.WithContext(ctx).Where("job = ? AND run_date = ?", job, day).First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
