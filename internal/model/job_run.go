package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
)

// JobRun is the per-calendar-day ledger entry that keeps a batch job from
// running twice for the same day across replicas.
type JobRun struct {
	ID         uuid.UUID `gorm:"type:text;primaryKey"`
	Job        string    `gorm:"not null;uniqueIndex:idx_job_run_day,priority:1"`
	RunDate    Date      `gorm:"not null;uniqueIndex:idx_job_run_day,priority:2"`
	Status     JobStatus `gorm:"not null"`
	Processed  int
	Failed     int
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (r *JobRun) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
