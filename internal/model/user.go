package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the owning identity. The todo counters are maintained in the same
// transaction as every instance write.
type User struct {
	ID             uuid.UUID `gorm:"type:text;primaryKey"`
	TelegramID     *int64    `gorm:"uniqueIndex"`
	FirstName      string
	LastName       string
	Username       string
	TotalTodos     int `gorm:"not null;default:0;index"`
	CompletedTodos int `gorm:"not null;default:0"`
	CurrentStreak  int `gorm:"not null;default:0"`
	BestStreak     int `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
