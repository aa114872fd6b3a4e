package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a recurrence rule that produces dated task instances.
type Template struct {
	ID             uuid.UUID      `gorm:"type:text;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:text;not null;index" json:"-"`
	Title          string         `gorm:"not null" json:"title"`
	Description    *string        `json:"description"`
	RecurrenceType RecurrenceType `gorm:"not null" json:"recurrenceType"`
	RecurrenceDays RecurrenceDays `gorm:"not null" json:"recurrenceDays"`
	StartDate      Date           `gorm:"not null" json:"startDate"`
	EndDate        *Date          `json:"endDate"`
	IsActive       bool           `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (t *Template) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Covers reports whether d lies inside the template's start/end window.
func (t *Template) Covers(d Date) bool {
	if d.Before(t.StartDate) {
		return false
	}
	if t.EndDate != nil && d.After(*t.EndDate) {
		return false
	}
	return true
}

// Matches evaluates the recurrence predicate for d, ignoring the window.
func (t *Template) Matches(d Date) bool {
	switch t.RecurrenceType {
	case RecurrenceDaily:
		return true
	case RecurrenceWeekly:
		return t.RecurrenceDays.Contains(int(d.Weekday()))
	case RecurrenceMonthly:
		return t.RecurrenceDays.Contains(d.Day())
	default:
		return false
	}
}

// Due reports whether the template should have an instance on d.
func (t *Template) Due(d Date) bool {
	return t.Covers(d) && t.Matches(d)
}
