package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

const defaultGrassMonths = 6

// DayStats is the completion tally of one calendar day.
type DayStats struct {
	Date      model.Date `json:"date"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Rate      int        `json:"rate"`
}

func newDayStats(c repository.DayCount) DayStats {
	return DayStats{Date: c.Date, Total: c.Total, Completed: c.Completed, Rate: Rate(c.Completed, c.Total)}
}

type MonthlyStats struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	DailyStats []DayStats `json:"dailyStats"`
}

type WeekdayStats struct {
	DayOfWeek int `json:"dayOfWeek"`
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Rate      int `json:"rate"`
}

type WeeklyStats struct {
	WeekStart      model.Date     `json:"weekStart"`
	WeekEnd        model.Date     `json:"weekEnd"`
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	Rate           int            `json:"rate"`
	DailyBreakdown []WeekdayStats `json:"dailyBreakdown"`
}

type OverviewStats struct {
	TotalTodos     int `json:"totalTodos"`
	CompletedTodos int `json:"completedTodos"`
	OverallRate    int `json:"overallRate"`
	CurrentStreak  int `json:"currentStreak"`
	BestStreak     int `json:"bestStreak"`
}

type GrassDay struct {
	DayStats
	Level int `json:"level"`
}

type GrassStats struct {
	StartDate  model.Date `json:"startDate"`
	EndDate    model.Date `json:"endDate"`
	TotalDays  int        `json:"totalDays"`
	ActiveDays int        `json:"activeDays"`
	Data       []GrassDay `json:"data"`
}

// StatsService builds read-only projections over instances and counters.
type StatsService struct {
	store       *repository.Store
	cal         Calendar
	grassMonths int
}

func NewStatsService(store *repository.Store, cal Calendar, grassMonths int) *StatsService {
	if grassMonths <= 0 {
		grassMonths = defaultGrassMonths
	}
	return &StatsService{store: store, cal: cal, grassMonths: grassMonths}
}

// Monthly returns per-day rates for days of the month that have instances.
// Zero year or month means the current one.
func (s *StatsService) Monthly(ctx context.Context, ownerID uuid.UUID, year, month int) (*MonthlyStats, error) {
	today := s.cal.Today()
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if month < 1 || month > 12 {
		return nil, validationf("month %d out of range", month)
	}
	from := model.NewDate(year, time.Month(month), 1)

	counts, err := s.store.Instances.CountByDay(ctx, ownerID, from, from.EndOfMonth())
	if err != nil {
		return nil, err
	}
	out := &MonthlyStats{Year: year, Month: month, DailyStats: make([]DayStats, 0, len(counts))}
	for _, c := range counts {
		out.DailyStats = append(out.DailyStats, newDayStats(c))
	}
	return out, nil
}

// Weekly covers the Sunday..Saturday week containing today.
func (s *StatsService) Weekly(ctx context.Context, ownerID uuid.UUID) (*WeeklyStats, error) {
	today := s.cal.Today()
	start := today.AddDays(-int(today.Weekday()))
	end := start.AddDays(6)

	counts, err := s.store.Instances.CountByDay(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	out := &WeeklyStats{WeekStart: start, WeekEnd: end, DailyBreakdown: make([]WeekdayStats, 7)}
	for i := range out.DailyBreakdown {
		out.DailyBreakdown[i].DayOfWeek = i
	}
	for _, c := range counts {
		wd := &out.DailyBreakdown[int(c.Date.Weekday())]
		wd.Total += c.Total
		wd.Completed += c.Completed
		out.Total += c.Total
		out.Completed += c.Completed
	}
	for i := range out.DailyBreakdown {
		wd := &out.DailyBreakdown[i]
		wd.Rate = Rate(wd.Completed, wd.Total)
	}
	out.Rate = Rate(out.Completed, out.Total)
	return out, nil
}

// Overview reads the owner's maintained counters without scanning instances.
func (s *StatsService) Overview(ctx context.Context, ownerID uuid.UUID) (*OverviewStats, error) {
	user, err := s.store.Users.FindByID(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return &OverviewStats{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &OverviewStats{
		TotalTodos:     user.TotalTodos,
		CompletedTodos: user.CompletedTodos,
		OverallRate:    Rate(user.CompletedTodos, user.TotalTodos),
		CurrentStreak:  user.CurrentStreak,
		BestStreak:     user.BestStreak,
	}, nil
}

// Grass returns one entry per calendar day over the last months months,
// including days without activity. Zero months uses the configured default.
func (s *StatsService) Grass(ctx context.Context, ownerID uuid.UUID, months int) (*GrassStats, error) {
	if months <= 0 {
		months = s.grassMonths
	}
	end := s.cal.Today()
	start := end.AddMonths(-months)

	counts, err := s.store.Instances.CountByDay(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]repository.DayCount, len(counts))
	for _, c := range counts {
		byDay[c.Date.String()] = c
	}

	out := &GrassStats{StartDate: start, EndDate: end}
	for day := start; !day.After(end); day = day.AddDays(1) {
		c := byDay[day.String()]
		c.Date = day
		entry := GrassDay{DayStats: newDayStats(c), Level: GrassLevel(c.Completed)}
		if c.Total > 0 {
			out.ActiveDays++
		}
		out.Data = append(out.Data, entry)
	}
	out.TotalDays = len(out.Data)
	return out, nil
}

// GrassLevel discretizes a day's completed count into heatmap levels 0..4.
func GrassLevel(completed int) int {
	switch {
	case completed <= 0:
		return 0
	case completed == 1:
		return 1
	case completed == 2:
		return 2
	case completed <= 4:
		return 3
	default:
		return 4
	}
}
