package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Instance is one concrete day's occurrence of a task. Title and description
// are copied from the template at generation time.
type Instance struct {
	ID             uuid.UUID  `gorm:"type:text;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:text;not null;index:idx_instance_user_date,priority:1" json:"-"`
	Title          string     `gorm:"not null" json:"title"`
	Description    *string    `json:"description"`
	Date           Date       `gorm:"not null;index:idx_instance_user_date,priority:2;uniqueIndex:idx_instance_template_date,priority:2" json:"date"`
	IsCompleted    bool       `gorm:"not null;default:false" json:"isCompleted"`
	CompletedAt    *time.Time `json:"completedAt"`
	TemplateID     *uuid.UUID `gorm:"type:text;uniqueIndex:idx_instance_template_date,priority:1" json:"templateId"`
	CarryOverCount int        `gorm:"not null;default:0" json:"carryOverCount"`
	CarriedFromID  *uuid.UUID `gorm:"type:text;uniqueIndex" json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (i *Instance) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SetCompleted flips the completion flag, keeping CompletedAt set iff the
// instance is completed.
func (i *Instance) SetCompleted(done bool, at time.Time) {
	i.IsCompleted = done
	if done {
		i.CompletedAt = &at
	} else {
		i.CompletedAt = nil
	}
}
