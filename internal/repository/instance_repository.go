package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/model"
)

// DayCount is the number of instances and completed instances on one date.
type DayCount struct {
	Date      model.Date
	Total     int
	Completed int
}

// InstanceRepository handles dated task instances.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func (r *InstanceRepository) Create(ctx context.Context, inst *model.Instance) error {
	if err := r.db.WithContext(ctx).Create(inst).Error; err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts inst unless a row with the same (template_id, date)
// or the same carried_from_id already exists. It reports whether a row was
// written; conflicts are absorbed by the database atomically.
func (r *InstanceRepository) CreateIfAbsent(ctx context.Context, inst *model.Instance) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(inst)
	if res.Error != nil {
		return false, fmt.Errorf("create instance: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindByID returns the owner's instance or ErrNotFound.
func (r *InstanceRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Instance, error) {
	var inst model.Instance
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&inst).Error; err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

// ListRange returns the owner's instances dated within [from, to].
func (r *InstanceRepository) ListRange(ctx context.Context, userID uuid.UUID, from, to model.Date) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC, is_completed ASC, created_at ASC").
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return instances, nil
}

// ListIncompleteOn returns every owner's unfinished instances dated day.
func (r *InstanceRepository) ListIncompleteOn(ctx context.Context, day model.Date) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).
		Where("date = ? AND is_completed = ?", day, false).
		Order("user_id, created_at").
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("list incomplete instances: %w", err)
	}
	return instances, nil
}

// ListByTemplateFrom returns a template's instances dated on or after day.
func (r *InstanceRepository) ListByTemplateFrom(ctx context.Context, templateID uuid.UUID, day model.Date) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).
		Where("template_id = ? AND date >= ?", templateID, day).
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("list template instances: %w", err)
	}
	return instances, nil
}

// CountByDay aggregates the owner's instances per date within [from, to].
// Days without instances are absent from the result.
func (r *InstanceRepository) CountByDay(ctx context.Context, userID uuid.UUID, from, to model.Date) ([]DayCount, error) {
	var rows []DayCount
	err := r.db.WithContext(ctx).Model(&model.Instance{}).
		Select("date, COUNT(*) AS total, SUM(CASE WHEN is_completed THEN 1 ELSE 0 END) AS completed").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Group("date").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count instances: %w", err)
	}
	return rows, nil
}

func (r *InstanceRepository) Save(ctx context.Context, inst *model.Instance) error {
	if err := r.db.WithContext(ctx).Save(inst).Error; err != nil {
		return fmt.Errorf("save instance: %w", err)
	}
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.Instance{}).Error; err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}

// DeleteByTemplateFrom removes a template's instances dated on or after day.
func (r *InstanceRepository) DeleteByTemplateFrom(ctx context.Context, templateID uuid.UUID, day model.Date) error {
	if err := r.db.WithContext(ctx).Where("template_id = ? AND date >= ?", templateID, day).
		Delete(&model.Instance{}).Error; err != nil {
		return fmt.Errorf("delete template instances: %w", err)
	}
	return nil
}

// Detach clears the template reference on the template's remaining instances.
func (r *InstanceRepository) Detach(ctx context.Context, templateID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Model(&model.Instance{}).
		Where("template_id = ?", templateID).
		Update("template_id", nil).Error; err != nil {
		return fmt.Errorf("detach instances: %w", err)
	}
	return nil
}
