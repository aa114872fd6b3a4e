package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"daily-tracker/internal/model"
)

// UserRepository handles owners and their aggregate counters.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the user with the given id, creating an empty one if needed.
func (r *UserRepository) Ensure(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user := model.User{ID: id}
	if err := r.db.WithContext(ctx).Where("id = ?", id).FirstOrCreate(&user).Error; err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return &user, nil
}

// UpsertFromTelegram finds or creates a user based on TelegramID and updates basic profile info.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			TelegramID: &telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListTelegram returns every user reachable through the chat front-end.
func (r *UserRepository) ListTelegram(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListWithTodos returns ids of owners that have ever had an instance.
func (r *UserRepository) ListWithTodos(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("total_todos > ?", 0).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return ids, nil
}

// AdjustCounters applies deltas to totalTodos and completedTodos.
func (r *UserRepository) AdjustCounters(ctx context.Context, id uuid.UUID, total, completed int) error {
	if total == 0 && completed == 0 {
		return nil
	}
	updates := map[string]interface{}{}
	if total != 0 {
		updates["total_todos"] = gorm.Expr("total_todos + ?", total)
	}
	if completed != 0 {
		updates["completed_todos"] = gorm.Expr("completed_todos + ?", completed)
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumns(updates).Error; err != nil {
		return fmt.Errorf("adjust counters: %w", err)
	}
	return nil
}

// SetStreak stores the current streak and raises the best streak if exceeded.
func (r *UserRepository) SetStreak(ctx context.Context, id uuid.UUID, current int) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"current_streak": current,
		"best_streak":    gorm.Expr("MAX(best_streak, ?)", current),
	}).Error
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}
