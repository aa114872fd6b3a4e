package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

// ReminderService builds human-readable summaries for chat notifications.
type ReminderService struct {
	store *repository.Store
	cal   Calendar
}

func NewReminderService(store *repository.Store, cal Calendar) *ReminderService {
	return &ReminderService{store: store, cal: cal}
}

// DailySummary renders today's todos of user as Telegram HTML: open items
// first (carried ones on top), then the finished ones, then progress.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User) (string, error) {
	today := s.cal.Today()
	instances, err := s.store.Instances.ListRange(ctx, user.ID, today, today)
	if err != nil {
		return "", err
	}

	var pending, done []model.Instance
	for _, inst := range instances {
		if inst.IsCompleted {
			done = append(done, inst)
		} else {
			pending = append(pending, inst)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CarryOverCount > pending[j].CarryOverCount
	})

	var b strings.Builder
	b.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", today.Midnight(s.cal.Location()).Format("02.01.2006")))

	b.WriteString("🔥 <b>Осталось сделать</b>\n")
	if len(pending) == 0 {
		b.WriteString("— всё сделано\n")
	}
	for _, inst := range pending {
		b.WriteString(FormatInstance(inst))
	}

	if len(done) > 0 {
		b.WriteString("\n✅ <b>Готово</b>\n")
		for _, inst := range done {
			b.WriteString(FormatInstance(inst))
		}
	}

	b.WriteString(fmt.Sprintf("\n📊 Выполнено %d из %d (%d%%)\n", len(done), len(instances), Rate(len(done), len(instances))))
	b.WriteString(fmt.Sprintf("🔥 Серия: %d дн. · рекорд: %d дн.", user.CurrentStreak, user.BestStreak))
	return b.String(), nil
}

// FormatInstance renders one instance as a single HTML line.
func FormatInstance(inst model.Instance) string {
	var sb strings.Builder

	icon := "⬜️"
	switch {
	case inst.IsCompleted:
		icon = "✅"
	case inst.CarryOverCount > 0:
		icon = "⏩"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(inst.Title))))

	if inst.TemplateID != nil {
		sb.WriteString(" ♻️")
	}
	if inst.CarryOverCount > 0 {
		sb.WriteString(fmt.Sprintf(" <i>(перенесено %d раз)</i>", inst.CarryOverCount))
	}
	if inst.Description != nil {
		if desc := strings.TrimSpace(*inst.Description); desc != "" {
			sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
		}
	}

	sb.WriteByte('\n')
	return sb.String()
}
