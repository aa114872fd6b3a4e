package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

type conversationStage int

const (
	stageTitle conversationStage = iota + 1
	stageDescription
	stageRecurrence
	stageDays
	stageEndDate
)

const maxTitleLen = 100

type conversationState struct {
	stage conversationStage
	input service.CreateInput
}

func (b *Bot) startNewTodoConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Новая задача.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}
	logger.FromContext(ctx).Debug("conversation step",
		slog.Int64("telegram_id", msg.From.ID),
		slog.Int("stage", int(state.stage)))

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" || len([]rune(text)) > maxTitleLen {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("Название должно быть от 1 до %d символов.", maxTitleLen), cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь описание (или нажми «Пропустить»).", skipKeyboard())

	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = &text
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Как часто повторять?", recurrenceKeyboard())

	case stageRecurrence:
		kind, ok := parseRecurrence(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант на клавиатуре.", recurrenceKeyboard())
		}
		state.input.RecurrenceType = kind
		switch kind {
		case model.RecurrenceNone:
			return b.finishTodoCreation(ctx, msg, state)
		case model.RecurrenceDaily:
			state.stage = stageEndDate
			return b.sendWithReplyMarkup(msg.Chat.ID, endDatePrompt, skipKeyboard())
		case model.RecurrenceWeekly:
			state.stage = stageDays
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 В какие дни недели? Перечисли через запятую: <code>пн, ср, пт</code>", cancelKeyboard())
		default:
			state.stage = stageDays
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Какие числа месяца? Например: <code>1, 15</code>", cancelKeyboard())
		}

	case stageDays:
		days, err := parseDays(state.input.RecurrenceType, text)
		if err == nil {
			err = model.ValidateRecurrence(state.input.RecurrenceType, days)
		}
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("Не получилось разобрать дни: %s", escape(err.Error())), cancelKeyboard())
		}
		state.input.RecurrenceDays = days
		state.stage = stageEndDate
		return b.sendWithReplyMarkup(msg.Chat.ID, endDatePrompt, skipKeyboard())

	case stageEndDate:
		if !isSkipInput(text) {
			end, err := model.ParseDate(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Формат <code>2026-12-31</code> или «Пропустить».", skipKeyboard())
			}
			state.input.EndDate = &end
		}
		return b.finishTodoCreation(ctx, msg, state)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtodo.")
	}
}

const endDatePrompt = "⏹ До какой даты повторять? Формат <code>2026-12-31</code> (или «Пропустить»)."

func (b *Bot) finishTodoCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	defer b.clearConversation(msg.From.ID)

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	in := state.input
	in.Date = b.svc.Calendar.Today()

	res, err := b.svc.Todos.Create(ctx, user.ID, in)
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}

	var sb strings.Builder
	sb.WriteString("✅ <b>Задача сохранена</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(in.Title))))
	if in.Description != nil && *in.Description != "" {
		sb.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(*in.Description)))
	}
	if res.Template != nil {
		sb.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s\n", describeRecurrence(*res.Template)))
		if res.Template.EndDate != nil {
			sb.WriteString(fmt.Sprintf("• <b>До:</b> %s\n", formatDate(*res.Template.EndDate)))
		}
		sb.WriteString(fmt.Sprintf("• <b>Запланировано:</b> %d шт. на ближайшие дни\n", len(res.Instances)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func parseRecurrence(text string) (model.RecurrenceType, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnOnce), "once", "none":
		return model.RecurrenceNone, true
	case strings.ToLower(btnDaily), "daily":
		return model.RecurrenceDaily, true
	case strings.ToLower(btnWeekly), "weekly":
		return model.RecurrenceWeekly, true
	case strings.ToLower(btnMonthly), "monthly":
		return model.RecurrenceMonthly, true
	}
	return "", false
}

var weekdayAliases = map[string]int{
	"вс": 0, "пн": 1, "вт": 2, "ср": 3, "чт": 4, "пт": 5, "сб": 6,
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

// parseDays reads a comma separated list of weekday names or numbers.
func parseDays(kind model.RecurrenceType, text string) (model.RecurrenceDays, error) {
	var days model.RecurrenceDays
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		token := strings.ToLower(strings.TrimSpace(field))
		if kind == model.RecurrenceWeekly {
			if d, ok := weekdayAliases[token]; ok {
				days = append(days, d)
				continue
			}
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("%q не число", token)
		}
		days = append(days, n)
	}
	slices.Sort(days)
	return slices.Compact(days), nil
}

func describeRecurrence(t model.Template) string {
	switch t.RecurrenceType {
	case model.RecurrenceDaily:
		return "каждый день"
	case model.RecurrenceWeekly:
		names := make([]string, 0, len(t.RecurrenceDays))
		for _, d := range t.RecurrenceDays {
			names = append(names, weekdayNames[d])
		}
		return "по дням недели: " + strings.Join(names, ", ")
	case model.RecurrenceMonthly:
		nums := make([]string, 0, len(t.RecurrenceDays))
		for _, d := range t.RecurrenceDays {
			nums = append(nums, strconv.Itoa(d))
		}
		return "по числам: " + strings.Join(nums, ", ")
	}
	return "без повтора"
}
