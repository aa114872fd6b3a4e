package api

import (
	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

type CreateTodoRequest struct {
	Title          string      `json:"title" validate:"required,max=100"`
	Description    *string     `json:"description" validate:"omitempty,max=500"`
	Date           model.Date  `json:"date"`
	RecurrenceType string      `json:"recurrenceType" validate:"omitempty,oneof=NONE DAILY WEEKLY MONTHLY"`
	RecurrenceDays []int       `json:"recurrenceDays" validate:"omitempty,max=31,dive,min=0,max=31"`
	EndDate        *model.Date `json:"endDate"`
}

func (req CreateTodoRequest) input() service.CreateInput {
	return service.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		RecurrenceType: model.RecurrenceType(req.RecurrenceType),
		RecurrenceDays: model.RecurrenceDays(req.RecurrenceDays),
		EndDate:        req.EndDate,
	}
}

type UpdateTodoRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsCompleted *bool   `json:"isCompleted"`
}

func (req UpdateTodoRequest) input() service.UpdateInput {
	return service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
	}
}

type UpdateTemplateRequest struct {
	Title          *string     `json:"title" validate:"omitempty,max=100"`
	Description    *string     `json:"description" validate:"omitempty,max=500"`
	RecurrenceType *string     `json:"recurrenceType" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceDays []int       `json:"recurrenceDays" validate:"omitempty,min=1,max=31,dive,min=0,max=31"`
	EndDate        *model.Date `json:"endDate"`
	IsActive       *bool       `json:"isActive"`
}

func (req UpdateTemplateRequest) patch() service.TemplatePatch {
	p := service.TemplatePatch{
		Title:       req.Title,
		Description: req.Description,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
	}
	if req.RecurrenceType != nil {
		kind := model.RecurrenceType(*req.RecurrenceType)
		p.RecurrenceType = &kind
	}
	if req.RecurrenceDays != nil {
		p.RecurrenceDays = model.RecurrenceDays(req.RecurrenceDays)
	}
	return p
}

// monthQuery carries the optional year/month query parameters.
type monthQuery struct {
	Year  int `json:"year" validate:"omitempty,min=2000,max=2100"`
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
}

type grassQuery struct {
	Months int `json:"months" validate:"omitempty,min=1,max=24"`
}
