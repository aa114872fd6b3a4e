package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

const defaultLookahead = 7

// CreateInput represents data required to create a todo. A recurrence type
// other than NONE creates a template whose first window is generated at once.
type CreateInput struct {
	Title          string
	Description    *string
	Date           model.Date
	RecurrenceType model.RecurrenceType
	RecurrenceDays model.RecurrenceDays
	EndDate        *model.Date
}

// CreateResult holds either the one-off instance or the new template with
// the instances generated for it.
type CreateResult struct {
	Instance  *model.Instance  `json:"instance,omitempty"`
	Template  *model.Template  `json:"template,omitempty"`
	Instances []model.Instance `json:"instances,omitempty"`
}

// ListQuery selects a single date, or a month when Date is nil.
type ListQuery struct {
	Date  *model.Date
	Year  int
	Month int
}

type TodoList struct {
	Date      *model.Date      `json:"date"`
	Year      *int             `json:"year"`
	Month     *int             `json:"month"`
	Data      []model.Instance `json:"data"`
	Total     int              `json:"total"`
	Completed int              `json:"completed"`
	Rate      int              `json:"rate"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	IsCompleted *bool
}

// TemplatePatch is a partial template update; nil fields are left unchanged.
type TemplatePatch struct {
	Title          *string
	Description    *string
	RecurrenceType *model.RecurrenceType
	RecurrenceDays model.RecurrenceDays
	EndDate        *model.Date
	IsActive       *bool
}

type TemplateList struct {
	Data  []model.Template `json:"data"`
	Total int              `json:"total"`
}

type ToggleResult struct {
	model.Instance
	DailyStats DayStats `json:"dailyStats"`
}

// TodoService wraps todo-related business logic.
type TodoService struct {
	store     *repository.Store
	cal       Calendar
	streak    *StreakCalculator
	lookahead int
}

func NewTodoService(store *repository.Store, cal Calendar, streak *StreakCalculator, lookaheadDays int) *TodoService {
	if lookaheadDays <= 0 {
		lookaheadDays = defaultLookahead
	}
	return &TodoService{store: store, cal: cal, streak: streak, lookahead: lookaheadDays}
}

func (s *TodoService) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*CreateResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if in.Date.IsZero() {
		return nil, validationf("date is required")
	}
	kind := in.RecurrenceType
	if kind == "" {
		kind = model.RecurrenceNone
	}

	if kind == model.RecurrenceNone {
		inst := model.Instance{UserID: ownerID, Title: title, Description: in.Description, Date: in.Date}
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			if err := tx.Instances.Create(ctx, &inst); err != nil {
				return err
			}
			return tx.Users.AdjustCounters(ctx, ownerID, 1, 0)
		})
		if err != nil {
			return nil, err
		}
		return &CreateResult{Instance: &inst}, nil
	}

	if err := model.ValidateRecurrence(kind, in.RecurrenceDays); err != nil {
		return nil, validationf("%v", err)
	}
	if in.EndDate != nil && in.EndDate.Before(in.Date) {
		return nil, validationf("end date %s is before start date %s", in.EndDate, in.Date)
	}

	days := in.RecurrenceDays
	if days == nil {
		days = model.RecurrenceDays{}
	}
	tmpl := model.Template{
		UserID:         ownerID,
		Title:          title,
		Description:    in.Description,
		RecurrenceType: kind,
		RecurrenceDays: days,
		StartDate:      in.Date,
		EndDate:        in.EndDate,
		IsActive:       true,
	}

	var instances []model.Instance
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Templates.Create(ctx, &tmpl); err != nil {
			return err
		}
		var err error
		instances, err = generate(ctx, tx, tmpl.ID, ownerID, s.cal.Today(), s.lookahead)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("template created",
		"template_id", tmpl.ID,
		"owner_id", ownerID,
		"recurrence", kind,
		"instances", len(instances))

	if instances == nil {
		instances = []model.Instance{}
	}
	return &CreateResult{Template: &tmpl, Instances: instances}, nil
}

func (s *TodoService) List(ctx context.Context, ownerID uuid.UUID, q ListQuery) (*TodoList, error) {
	var (
		from, to model.Date
		out      TodoList
	)
	if q.Date != nil {
		from, to = *q.Date, *q.Date
		out.Date = q.Date
	} else {
		today := s.cal.Today()
		year, month := q.Year, q.Month
		if year == 0 {
			year = today.Year()
		}
		if month == 0 {
			month = int(today.Month())
		}
		if month < 1 || month > 12 {
			return nil, validationf("month %d out of range", month)
		}
		from = model.NewDate(year, time.Month(month), 1)
		to = from.EndOfMonth()
		out.Year, out.Month = &year, &month
	}

	instances, err := s.store.Instances.ListRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	if instances == nil {
		instances = []model.Instance{}
	}
	out.Data = instances
	out.Total = len(instances)
	for _, inst := range instances {
		if inst.IsCompleted {
			out.Completed++
		}
	}
	out.Rate = Rate(out.Completed, out.Total)
	return &out, nil
}

func (s *TodoService) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Instance, error) {
	inst, err := s.store.Instances.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err, "todo")
	}
	return inst, nil
}

// Update applies a partial update. A change of completion state adjusts the
// counters and refreshes the streak in the same transaction.
func (s *TodoService) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (*model.Instance, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, validationf("title must not be empty")
	}

	var out *model.Instance
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		inst, err := tx.Instances.FindByID(ctx, ownerID, id)
		if err != nil {
			return translate(err, "todo")
		}
		if in.Title != nil {
			inst.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			inst.Description = in.Description
		}
		changed := in.IsCompleted != nil && *in.IsCompleted != inst.IsCompleted
		if changed {
			inst.SetCompleted(*in.IsCompleted, s.cal.Now())
		}
		if err := tx.Instances.Save(ctx, inst); err != nil {
			return err
		}
		if changed {
			if err := s.completionChanged(ctx, tx, ownerID, inst.IsCompleted); err != nil {
				return err
			}
		}
		out = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Toggle flips completion and reports the instance's same-day completion
// rate for immediate feedback.
func (s *TodoService) Toggle(ctx context.Context, ownerID, id uuid.UUID) (*ToggleResult, error) {
	var out ToggleResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		inst, err := tx.Instances.FindByID(ctx, ownerID, id)
		if err != nil {
			return translate(err, "todo")
		}
		inst.SetCompleted(!inst.IsCompleted, s.cal.Now())
		if err := tx.Instances.Save(ctx, inst); err != nil {
			return err
		}
		if err := s.completionChanged(ctx, tx, ownerID, inst.IsCompleted); err != nil {
			return err
		}
		counts, err := tx.Instances.CountByDay(ctx, ownerID, inst.Date, inst.Date)
		if err != nil {
			return err
		}
		out.Instance = *inst
		out.DailyStats = DayStats{Date: inst.Date}
		if len(counts) > 0 {
			out.DailyStats = newDayStats(counts[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an instance and takes it out of the owner's counters.
func (s *TodoService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		inst, err := tx.Instances.FindByID(ctx, ownerID, id)
		if err != nil {
			return translate(err, "todo")
		}
		if err := tx.Instances.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		completed := 0
		if inst.IsCompleted {
			completed = -1
		}
		if err := tx.Users.AdjustCounters(ctx, ownerID, -1, completed); err != nil {
			return err
		}
		_, err = s.streak.refresh(ctx, tx, ownerID, s.cal.Today())
		return err
	})
}

func (s *TodoService) completionChanged(ctx context.Context, tx *repository.Store, ownerID uuid.UUID, done bool) error {
	delta := -1
	if done {
		delta = 1
	}
	if err := tx.Users.AdjustCounters(ctx, ownerID, 0, delta); err != nil {
		return err
	}
	_, err := s.streak.refresh(ctx, tx, ownerID, s.cal.Today())
	return err
}

// ListTemplates returns the owner's templates, newest first.
func (s *TodoService) ListTemplates(ctx context.Context, ownerID uuid.UUID) (*TemplateList, error) {
	templates, err := s.store.Templates.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []model.Template{}
	}
	return &TemplateList{Data: templates, Total: len(templates)}, nil
}

func (s *TodoService) GetTemplate(ctx context.Context, ownerID, id uuid.UUID) (*model.Template, error) {
	tmpl, err := s.store.Templates.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err, "template")
	}
	return tmpl, nil
}

// UpdateTemplate applies a partial update and re-validates the merged rule.
// Instances already generated keep their snapshot.
func (s *TodoService) UpdateTemplate(ctx context.Context, ownerID, id uuid.UUID, patch TemplatePatch) (*model.Template, error) {
	var out *model.Template
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		tmpl, err := tx.Templates.FindByID(ctx, ownerID, id)
		if err != nil {
			return translate(err, "template")
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return validationf("title must not be empty")
			}
			tmpl.Title = title
		}
		if patch.Description != nil {
			tmpl.Description = patch.Description
		}
		if patch.RecurrenceType != nil {
			tmpl.RecurrenceType = *patch.RecurrenceType
		}
		if patch.RecurrenceDays != nil {
			tmpl.RecurrenceDays = patch.RecurrenceDays
		}
		if patch.EndDate != nil {
			tmpl.EndDate = patch.EndDate
		}
		if patch.IsActive != nil {
			tmpl.IsActive = *patch.IsActive
		}

		if tmpl.RecurrenceType == model.RecurrenceNone {
			return validationf("a template must recur")
		}
		if err := model.ValidateRecurrence(tmpl.RecurrenceType, tmpl.RecurrenceDays); err != nil {
			return validationf("%v", err)
		}
		if tmpl.EndDate != nil && tmpl.EndDate.Before(tmpl.StartDate) {
			return validationf("end date %s is before start date %s", tmpl.EndDate, tmpl.StartDate)
		}
		if err := tx.Templates.Save(ctx, tmpl); err != nil {
			return err
		}
		out = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTemplate removes the template and its instances from today on. Past
// instances stay for history, detached from the template.
func (s *TodoService) DeleteTemplate(ctx context.Context, ownerID, id uuid.UUID) error {
	today := s.cal.Today()
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Templates.FindByID(ctx, ownerID, id); err != nil {
			return translate(err, "template")
		}
		future, err := tx.Instances.ListByTemplateFrom(ctx, id, today)
		if err != nil {
			return err
		}
		completed := 0
		for _, inst := range future {
			if inst.IsCompleted {
				completed++
			}
		}
		if err := tx.Instances.DeleteByTemplateFrom(ctx, id, today); err != nil {
			return err
		}
		if err := tx.Instances.Detach(ctx, id); err != nil {
			return err
		}
		if err := tx.Templates.Delete(ctx, ownerID, id); err != nil {
			return err
		}
		if err := tx.Users.AdjustCounters(ctx, ownerID, -len(future), -completed); err != nil {
			return err
		}
		if len(future) == 0 {
			return nil
		}
		_, err = s.streak.refresh(ctx, tx, ownerID, today)
		return err
	})
}
