package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"everydo/internal/model"
	"everydo/internal/service"
)

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	if isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendWithReplyMarkup(msg.Chat.ID, "Okay, cancelled.", mainMenuKeyboard())
	}

	switch state.kind {
	case convNewTemplate:
		return b.continueTemplateConversation(ctx, msg, state)
	case convCheckin:
		return b.continueCheckinConversation(ctx, msg, state)
	default:
		b.clearConversation(msg.From.ID)
		return nil
	}
}

// --- template creation ---

func (b *Bot) startTemplateConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	b.setConversation(msg.From.ID, &conversationState{kind: convNewTemplate, tmplStage: tmplTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "New template. What's the title?", cancelKeyboard())
}

func (b *Bot) continueTemplateConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.tmplStage {
	case tmplTitle:
		if text == "" {
			return b.sendText(chatID, "Title cannot be empty. Try again.")
		}
		state.tmplInput.Title = text
		state.tmplStage = tmplDescription
		return b.sendWithReplyMarkup(chatID, "Description? (or skip)", skipKeyboard())

	case tmplDescription:
		if !isSkipInput(text) {
			state.tmplInput.Description = text
		}
		state.tmplStage = tmplMinutes
		return b.sendWithReplyMarkup(chatID, "Estimated minutes per day?", cancelKeyboard())

	case tmplMinutes:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 {
			return b.sendText(chatID, "Give me a positive number of minutes.")
		}
		state.tmplInput.EstimatedMinutes = minutes
		state.tmplStage = tmplPriority
		return b.sendWithReplyMarkup(chatID, "Priority, 1 (top) to 5?", cancelKeyboard())

	case tmplPriority:
		priority, err := strconv.Atoi(text)
		if err != nil || priority < 1 || priority > 5 {
			return b.sendText(chatID, "Priority must be between 1 and 5.")
		}
		state.tmplInput.Priority = priority
		state.tmplStage = tmplRecurrence
		return b.sendWithReplyMarkup(chatID, "How does it repeat?", recurrenceKeyboard())

	case tmplRecurrence:
		recurrence, ok := recurrenceFromLabel(text)
		if !ok {
			return b.sendText(chatID, "Pick one of the options below.")
		}
		state.tmplInput.RecurrenceType = recurrence
		switch recurrence {
		case model.RecurWeekly:
			state.tmplStage = tmplWeekday
			return b.sendWithReplyMarkup(chatID, "Which day? (1 = Monday .. 7 = Sunday)", cancelKeyboard())
		case model.RecurSpecificDate:
			state.tmplStage = tmplDate
			return b.sendWithReplyMarkup(chatID, "Which date? (YYYY-MM-DD)", cancelKeyboard())
		case model.RecurIntervalDays:
			state.tmplStage = tmplInterval
			return b.sendWithReplyMarkup(chatID, "Every how many days?", cancelKeyboard())
		default:
			state.tmplStage = tmplStartTime
			return b.sendWithReplyMarkup(chatID, "Planned start time HH:MM? (or skip for all-day)", skipKeyboard())
		}

	case tmplWeekday:
		day, err := strconv.Atoi(text)
		if err != nil || day < 1 || day > 7 {
			return b.sendText(chatID, "Day must be 1 (Monday) through 7 (Sunday).")
		}
		state.tmplInput.DayOfWeek = day
		state.tmplStage = tmplStartTime
		return b.sendWithReplyMarkup(chatID, "Planned start time HH:MM? (or skip for all-day)", skipKeyboard())

	case tmplDate:
		date, err := model.ParseDate(text, b.config.Location)
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		state.tmplInput.SpecificDate = &date
		state.tmplStage = tmplStartTime
		return b.sendWithReplyMarkup(chatID, "Planned start time HH:MM? (or skip for all-day)", skipKeyboard())

	case tmplInterval:
		interval, err := strconv.Atoi(text)
		if err != nil || interval <= 0 {
			return b.sendText(chatID, "Give me a positive number of days.")
		}
		state.tmplInput.IntervalDays = interval
		state.tmplStage = tmplStartTime
		return b.sendWithReplyMarkup(chatID, "Planned start time HH:MM? (or skip for all-day)", skipKeyboard())

	case tmplStartTime:
		if !isSkipInput(text) {
			if _, err := model.ParseClock(text); err != nil {
				return b.sendText(chatID, escape(err.Error()))
			}
			state.tmplInput.DefaultStartTime = text
		}
		state.tmplStage = tmplActiveFrom
		prompt := "Active from date YYYY-MM-DD? (or skip)"
		if state.tmplInput.RecurrenceType == model.RecurIntervalDays {
			// The anchor of an interval rule; required.
			prompt = "Anchor date YYYY-MM-DD the interval counts from?"
			return b.sendWithReplyMarkup(chatID, prompt, cancelKeyboard())
		}
		return b.sendWithReplyMarkup(chatID, prompt, skipKeyboard())

	case tmplActiveFrom:
		if !isSkipInput(text) {
			date, err := model.ParseDate(text, b.config.Location)
			if err != nil {
				return b.sendText(chatID, escape(err.Error()))
			}
			state.tmplInput.ActiveFrom = &date
		} else if state.tmplInput.RecurrenceType == model.RecurIntervalDays {
			return b.sendText(chatID, "Interval templates need an anchor date.")
		}
		state.tmplStage = tmplActiveTo
		return b.sendWithReplyMarkup(chatID, "Active until date YYYY-MM-DD? (or skip)", skipKeyboard())

	case tmplActiveTo:
		if !isSkipInput(text) {
			date, err := model.ParseDate(text, b.config.Location)
			if err != nil {
				return b.sendText(chatID, escape(err.Error()))
			}
			state.tmplInput.ActiveTo = &date
		}
		return b.finishTemplateCreation(ctx, msg, state)
	}

	return nil
}

func (b *Bot) finishTemplateCreation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	template, err := b.templateSvc.Create(ctx, user.ID, state.tmplInput)
	if err != nil {
		if service.IsValidation(err) {
			return b.sendText(msg.Chat.ID, "⚠️ "+escape(err.Error()))
		}
		return err
	}

	b.clearConversation(msg.From.ID)
	text := fmt.Sprintf("Saved!\n\n%s\nThe next generation run will pick it up, or /generate now.", formatTemplate(*template))
	return b.sendWithReplyMarkup(msg.Chat.ID, text, mainMenuKeyboard())
}

// --- check-in ---

func (b *Bot) startCheckinConversation(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	window, err := b.checkinSvc.PendingWindowPrompt(ctx, user.ID, b.clock.Now(), b.config.CheckinWindowMinutes)
	if err != nil {
		return b.replyServiceError(msg.Chat.ID, err)
	}
	if window.Submitted {
		return b.sendText(msg.Chat.ID, fmt.Sprintf(
			"Window %s — %s is already submitted. ✔️",
			window.WindowStart.Format("15:04"), window.WindowEnd.Format("15:04"),
		))
	}

	state := &conversationState{kind: convCheckin, window: window}
	b.setConversation(msg.From.ID, state)

	if len(window.PlannedTasks) == 0 {
		state.checkinStage = checkinAdHoc
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf(
			"Nothing was planned for %s — %s.\nLog unplanned work as \"title, minutes\" per line, or skip.",
			window.WindowStart.Format("15:04"), window.WindowEnd.Format("15:04"),
		), skipKeyboard())
	}

	state.checkinStage = checkinTaskMinutes
	return b.askNextTask(msg.Chat.ID, state)
}

func (b *Bot) askNextTask(chatID int64, state *conversationState) error {
	task := state.window.PlannedTasks[state.taskIndex]
	text := fmt.Sprintf(
		"(%d/%d) How many minutes on:\n%s\nSend a number, or skip.",
		state.taskIndex+1, len(state.window.PlannedTasks), formatInstance(task),
	)
	return b.sendWithReplyMarkup(chatID, text, skipKeyboard())
}

func (b *Bot) continueCheckinConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.checkinStage {
	case checkinTaskMinutes:
		if !isSkipInput(text) {
			minutes, err := strconv.Atoi(text)
			if err != nil || minutes <= 0 || minutes > state.window.WindowMinutes {
				return b.sendText(chatID, fmt.Sprintf("Minutes must be between 1 and %d, or skip.", state.window.WindowMinutes))
			}
			taskID := state.window.PlannedTasks[state.taskIndex].ID
			state.checkinRecord = append(state.checkinRecord, service.CheckinRecordInput{
				TaskInstanceID:   &taskID,
				CompletedMinutes: minutes,
			})
		}
		state.taskIndex++
		if state.taskIndex < len(state.window.PlannedTasks) {
			return b.askNextTask(chatID, state)
		}
		state.checkinStage = checkinAdHoc
		return b.sendWithReplyMarkup(chatID, "Anything unplanned? Send \"title, minutes\" per line, or skip.", skipKeyboard())

	case checkinAdHoc:
		if !isSkipInput(text) {
			records, err := parseAdHocLines(text)
			if err != nil {
				return b.sendText(chatID, escape(err.Error()))
			}
			state.checkinRecord = append(state.checkinRecord, records...)
		}
		state.checkinStage = checkinComment
		return b.sendWithReplyMarkup(chatID, "Overall comment for the window? (or skip)", skipKeyboard())

	case checkinComment:
		comment := ""
		if !isSkipInput(text) {
			comment = text
		}
		return b.finishCheckin(ctx, msg, state, comment)
	}

	return nil
}

func (b *Bot) finishCheckin(ctx context.Context, msg *tgbotapi.Message, state *conversationState, comment string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	result, err := b.checkinSvc.Submit(ctx, user.ID,
		state.window.WindowStart, state.window.WindowEnd, comment, state.checkinRecord)
	if err != nil {
		if service.IsStateConflict(err) || service.IsValidation(err) || service.IsNotFound(err) {
			b.clearConversation(msg.From.ID)
			return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ "+escape(err.Error()), mainMenuKeyboard())
		}
		return err
	}

	b.clearConversation(msg.From.ID)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("✔️ Checked in for %s — %s.\n",
		result.WindowStart.Format("15:04"), result.WindowEnd.Format("15:04")))
	for _, record := range result.Records {
		builder.WriteString(fmt.Sprintf("• task #%d: +%d min", record.TaskInstanceID, record.AddedMinutes))
		if record.CreatedAsAdHoc {
			builder.WriteString(" (ad-hoc)")
		}
		builder.WriteByte('\n')
	}
	if len(result.Records) == 0 {
		builder.WriteString("No minutes logged — noted anyway.\n")
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, strings.TrimSpace(builder.String()), mainMenuKeyboard())
}

// parseAdHocLines reads "title, minutes" lines into ad-hoc check-in records.
func parseAdHocLines(text string) ([]service.CheckinRecordInput, error) {
	var records []service.CheckinRecordInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndex(line, ",")
		if idx < 0 {
			return nil, fmt.Errorf("line %q: expected \"title, minutes\"", line)
		}
		title := strings.TrimSpace(line[:idx])
		minutes, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("line %q: minutes must be a positive number", line)
		}
		if title == "" {
			return nil, fmt.Errorf("line %q: title cannot be empty", line)
		}
		records = append(records, service.CheckinRecordInput{
			Title:            title,
			CompletedMinutes: minutes,
		})
	}
	return records, nil
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Daily"),
			tgbotapi.NewKeyboardButton("Workdays"),
			tgbotapi.NewKeyboardButton("Holidays"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Weekly"),
			tgbotapi.NewKeyboardButton("One date"),
			tgbotapi.NewKeyboardButton("Every N days"),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func recurrenceFromLabel(text string) (model.RecurrenceType, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "daily":
		return model.RecurDaily, true
	case "workdays", "workday":
		return model.RecurWorkday, true
	case "holidays", "holiday":
		return model.RecurHoliday, true
	case "weekly":
		return model.RecurWeekly, true
	case "one date", "date":
		return model.RecurSpecificDate, true
	case "every n days", "interval":
		return model.RecurIntervalDays, true
	default:
		return "", false
	}
}
