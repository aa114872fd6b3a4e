package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"daily-tracker/internal/logger"
	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

const (
	cbTogglePrefix = "toggle:"
	cbDeletePrefix = "delete:"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if msg.IsCommand() {
		logger.FromContext(ctx).Info("command",
			slog.Int64("telegram_id", msg.From.ID),
			slog.String("command", msg.Command()))
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.getConversation(msg.From.ID) != nil {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /add &lt;задача&gt; или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleToday(ctx, msg.Chat.ID, msg.From, false)
	case "done":
		return b.handleToday(ctx, msg.Chat.ID, msg.From, true)
	case "add":
		return b.handleAdd(ctx, msg)
	case "newtodo":
		return b.startNewTodoConversation(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я трекер ежедневных дел: повторяю задачи по расписанию, переношу невыполненные и считаю серию.</b>\n\n%s",
		escape(name), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Команды:\n" +
	"• /today — задачи на сегодня\n" +
	"• /add &lt;текст&gt; — быстро добавить задачу на сегодня\n" +
	"• /newtodo — создать задачу пошагово (можно повторяющуюся)\n" +
	"• /done — отметить выполнение кнопками\n" +
	"• /delete &lt;номер&gt; — удалить задачу из списка на сегодня\n" +
	"• /stats — статистика и серия\n" +
	"• /report — отчёт за день\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Подсказки</b>\n"+helpText)
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		return b.sendText(msg.Chat.ID, "Укажи текст задачи: /add Купить молоко")
	}
	if len([]rune(title)) > maxTitleLen {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Название длиннее %d символов.", maxTitleLen))
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	res, err := b.svc.Todos.Create(ctx, user.ID, service.CreateInput{
		Title: title,
		Date:  b.svc.Calendar.Today(),
	})
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Добавлено на сегодня: %s", escape(normalizeTitle(res.Instance.Title))))
}

// handleToday lists today's instances. With onlyOpen set the list keeps the
// unfinished ones and the keyboard toggles them.
func (b *Bot) handleToday(ctx context.Context, chatID int64, from *tgbotapi.User, onlyOpen bool) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	today := b.svc.Calendar.Today()
	list, err := b.svc.Todos.List(ctx, user.ID, service.ListQuery{Date: &today})
	if err != nil {
		return b.replyError(ctx, chatID, err)
	}

	items := list.Data
	if onlyOpen {
		items = items[:0:0]
		for _, inst := range list.Data {
			if !inst.IsCompleted {
				items = append(items, inst)
			}
		}
	}
	if len(items) == 0 {
		if onlyOpen && list.Total > 0 {
			return b.sendText(chatID, "🎉 Всё на сегодня выполнено!")
		}
		return b.sendText(chatID, "На сегодня задач нет. Добавь через /add или /newtodo.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>Задачи на %s</b>\n", formatDate(today)))
	sb.WriteString(fmt.Sprintf("Выполнено %d из %d (%d%%)\n\n", list.Completed, list.Total, list.Rate))
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, inst := range items {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, service.FormatInstance(inst)))
		mark := "✅"
		if inst.IsCompleted {
			mark = "↩️"
		}
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", mark, i+1, shortTitle(inst.Title, 24)), cbTogglePrefix+inst.ID.String()),
		)
		if !onlyOpen {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+inst.ID.String()))
		}
		rows = append(rows, row)
	}

	return b.sendWithReplyMarkup(chatID, strings.TrimSpace(sb.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleDelete removes the n-th item of today's list.
func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	n, err := strconv.Atoi(args)
	if args == "" || err != nil || n < 1 {
		return b.sendText(msg.Chat.ID, "Укажи номер задачи из /today: /delete 2")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	today := b.svc.Calendar.Today()
	list, err := b.svc.Todos.List(ctx, user.ID, service.ListQuery{Date: &today})
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}
	if n > len(list.Data) {
		return b.sendText(msg.Chat.ID, "Задача с таким номером не найдена.")
	}
	inst := list.Data[n-1]
	if err := b.svc.Todos.Delete(ctx, user.ID, inst.ID); err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(normalizeTitle(inst.Title))))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	overview, err := b.svc.Stats.Overview(ctx, user.ID)
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}
	weekly, err := b.svc.Stats.Weekly(ctx, user.ID)
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Статистика</b>\n")
	sb.WriteString(fmt.Sprintf("• Всего задач: %d, выполнено: %d (%d%%)\n", overview.TotalTodos, overview.CompletedTodos, overview.OverallRate))
	sb.WriteString(fmt.Sprintf("• Серия: %d дн. · рекорд: %d дн.\n", overview.CurrentStreak, overview.BestStreak))
	sb.WriteString(fmt.Sprintf("\n🗓 <b>Неделя %s – %s</b>: %d из %d (%d%%)\n",
		formatDate(weekly.WeekStart), formatDate(weekly.WeekEnd), weekly.Completed, weekly.Total, weekly.Rate))
	for _, day := range weekly.DailyBreakdown {
		if day.Total == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("   %s: %d/%d\n", weekdayNames[day.DayOfWeek], day.Completed, day.Total))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminder.DailySummary(ctx, *user)
	if err != nil {
		return b.replyError(ctx, msg.Chat.ID, err)
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	var (
		prefix string
		id     uuid.UUID
		err    error
	)
	switch {
	case strings.HasPrefix(cb.Data, cbTogglePrefix):
		prefix = cbTogglePrefix
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		prefix = cbDeletePrefix
	default:
		b.ack(cb, "")
		return nil
	}
	if id, err = uuid.Parse(strings.TrimPrefix(cb.Data, prefix)); err != nil {
		b.ack(cb, "")
		return nil
	}

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.ack(cb, "")
		return err
	}

	if prefix == cbDeletePrefix {
		if err := b.svc.Todos.Delete(ctx, user.ID, id); err != nil {
			b.ack(cb, "")
			return b.replyError(ctx, chatID, err)
		}
		b.ack(cb, "Удалено")
		return b.handleToday(ctx, chatID, cb.From, false)
	}

	res, err := b.svc.Todos.Toggle(ctx, user.ID, id)
	if err != nil {
		b.ack(cb, "")
		return b.replyError(ctx, chatID, err)
	}
	note := "Снова в работе"
	if res.IsCompleted {
		note = fmt.Sprintf("Готово! За день: %d%%", res.DailyStats.Rate)
	}
	b.ack(cb, note)
	return b.handleToday(ctx, chatID, cb.From, false)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg.Chat.ID, msg.From, false)
	case strings.ToLower(menuLabelNew):
		return true, b.startNewTodoConversation(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// replyError tells the user what went wrong without leaking internals.
func (b *Bot) replyError(ctx context.Context, chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(chatID, "Задача не найдена или уже удалена.")
	case errors.Is(err, service.ErrValidation):
		return b.sendText(chatID, fmt.Sprintf("Проверь ввод: %s", escape(err.Error())))
	default:
		logger.FromContext(ctx).Error("request failed", slog.String("error", err.Error()))
		return b.sendText(chatID, "Что-то пошло не так, попробуй позже.")
	}
}

func formatDate(d model.Date) string {
	return fmt.Sprintf("%02d.%02d.%d", d.Day(), int(d.Month()), d.Year())
}
