package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// Generator expands active templates into dated instances. Running it again
// over the same window is a no-op: the (template_id, date) unique index
// absorbs every duplicate.
type Generator struct {
	store *repository.Store
	cal   Calendar
}

func NewGenerator(store *repository.Store, cal Calendar) *Generator {
	return &Generator{store: store, cal: cal}
}

// GenerateInstances creates the template's instances for daysAhead days
// starting today and returns only the newly created ones. A missing, foreign
// or inactive template yields no instances and no error.
func (g *Generator) GenerateInstances(ctx context.Context, templateID, ownerID uuid.UUID, daysAhead int) ([]model.Instance, error) {
	return g.GenerateFrom(ctx, templateID, ownerID, g.cal.Today(), daysAhead)
}

// GenerateFrom is GenerateInstances with an explicit first day.
func (g *Generator) GenerateFrom(ctx context.Context, templateID, ownerID uuid.UUID, from model.Date, daysAhead int) ([]model.Instance, error) {
	var created []model.Instance
	err := g.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		created, err = generate(ctx, tx, templateID, ownerID, from, daysAhead)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func generate(ctx context.Context, tx *repository.Store, templateID, ownerID uuid.UUID, from model.Date, daysAhead int) ([]model.Instance, error) {
	tmpl, err := tx.Templates.FindByID(ctx, ownerID, templateID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if !tmpl.IsActive {
		return nil, nil
	}

	var created []model.Instance
	for offset := 0; offset < daysAhead; offset++ {
		day := from.AddDays(offset)
		if !tmpl.Due(day) {
			continue
		}
		inst := model.Instance{
			UserID:      ownerID,
			Title:       tmpl.Title,
			Description: tmpl.Description,
			Date:        day,
			TemplateID:  &tmpl.ID,
		}
		ok, err := tx.Instances.CreateIfAbsent(ctx, &inst)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		created = append(created, inst)
	}

	if err := tx.Users.AdjustCounters(ctx, ownerID, len(created), 0); err != nil {
		return nil, err
	}
	if len(created) > 0 {
		logger.FromContext(ctx).Debug("generated instances",
			"template_id", templateID,
			"owner_id", ownerID,
			"count", len(created))
	}
	return created, nil
}
