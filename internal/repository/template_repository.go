package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"daily-tracker/internal/model"
)

// TemplateRepository stores recurrence templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tmpl *model.Template) error {
	if err := r.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// FindByID returns the owner's template or ErrNotFound.
func (r *TemplateRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Template, error) {
	var tmpl model.Template
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&tmpl).Error; err != nil {
		return nil, notFound(err)
	}
	return &tmpl, nil
}

func (r *TemplateRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// TemplateRef identifies a template without loading its rule.
type TemplateRef struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// ListActiveRefs returns ids of active templates that have not ended before
// day. Rules are loaded per template by the caller, so one unreadable row
// fails only its own unit.
func (r *TemplateRepository) ListActiveRefs(ctx context.Context, day model.Date) ([]TemplateRef, error) {
	var refs []TemplateRef
	if err := r.db.WithContext(ctx).Model(&model.Template{}).
		Select("id, user_id").
		Where("is_active = ? AND (end_date IS NULL OR end_date >= ?)", true, day).
		Order("created_at ASC").
		Scan(&refs).Error; err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	return refs, nil
}

func (r *TemplateRepository) Save(ctx context.Context, tmpl *model.Template) error {
	if err := r.db.WithContext(ctx).Save(tmpl).Error; err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.Template{}).Error; err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// DeactivateEndedBefore turns off every active template whose end date is
// strictly before day and returns how many were changed.
func (r *TemplateRepository) DeactivateEndedBefore(ctx context.Context, day model.Date) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Template{}).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, day).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate templates: %w", res.Error)
	}
	return res.RowsAffected, nil
}
