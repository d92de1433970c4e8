package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"everydo/internal/clock"
	"everydo/internal/config"
	"everydo/internal/model"
	"everydo/internal/repository"
	"everydo/internal/service"
)

type conversationKind int

const (
	convNone conversationKind = iota
	convNewTemplate
	convCheckin
)

type templateStage int

const (
	tmplTitle templateStage = iota
	tmplDescription
	tmplMinutes
	tmplPriority
	tmplRecurrence
	tmplWeekday
	tmplDate
	tmplInterval
	tmplStartTime
	tmplActiveFrom
	tmplActiveTo
)

type checkinStage int

const (
	checkinTaskMinutes checkinStage = iota
	checkinAdHoc
	checkinComment
)

const (
	cbDonePrefix        = "done:"
	cbCancelTaskPrefix  = "drop:"
	cbTemplateOnPrefix  = "tplon:"
	cbTemplateOffPrefix = "tploff:"
	cbTemplateDelPrefix = "tpldel:"
	cbStatsPrefix       = "stats:"
)

const (
	btnSkip           = "⏭️ Skip"
	btnCancelDialog   = "⏪ Cancel input"
	menuLabelToday    = "📋 Today"
	menuLabelCheckin  = "⏱ Check-in"
	menuLabelTemplate = "♻️ Templates"
	menuLabelStats    = "📊 Stats"
)

type conversationState struct {
	kind conversationKind

	tmplStage templateStage
	tmplInput service.TemplateInput

	checkinStage  checkinStage
	window        *service.PendingWindow
	taskIndex     int
	checkinRecord []service.CheckinRecordInput
}

// Bot aggregates the Telegram API with the tracker services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	templateSvc   *service.TemplateService
	instanceSvc   *service.InstanceService
	checkinSvc    *service.CheckinService
	recurrenceSvc *service.RecurrenceService
	statsSvc      *service.StatsService
	holidaySvc    *service.HolidayService
	config        *config.Config
	clock         clock.Clock
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(
	token string,
	userRepo *repository.UserRepository,
	templateSvc *service.TemplateService,
	instanceSvc *service.InstanceService,
	checkinSvc *service.CheckinService,
	recurrenceSvc *service.RecurrenceService,
	statsSvc *service.StatsService,
	holidaySvc *service.HolidayService,
	cfg *config.Config,
	clk clock.Clock,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		templateSvc:   templateSvc,
		instanceSvc:   instanceSvc,
		checkinSvc:    checkinSvc,
		recurrenceSvc: recurrenceSvc,
		statsSvc:      statsSvc,
		holidaySvc:    holidaySvc,
		config:        cfg,
		clock:         clk,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	return ctx.Err()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled || err != nil {
		return err
	}

	return b.sendText(msg.Chat.ID, "Use the menu below or /help to see what I can do.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	b.clearConversation(msg.From.ID)

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "templates":
		return b.handleTemplates(ctx, msg)
	case "newtemplate":
		return b.startTemplateConversation(ctx, msg)
	case "checkin":
		return b.startCheckinConversation(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "review":
		return b.handleReview(ctx, msg)
	case "generate":
		return b.handleGenerate(ctx, msg)
	case "holiday":
		return b.handleHoliday(ctx, msg)
	case "holidays":
		return b.handleHolidays(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. /help lists everything I understand.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelCheckin:
		return true, b.startCheckinConversation(ctx, msg)
	case menuLabelTemplate:
		return true, b.handleTemplates(ctx, msg)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg)
	}
	return false, nil
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"Hi, %s! I track your recurring tasks and check-ins.\n\n"+
			"Every day I turn your templates into a dated plan, and every %d minutes "+
			"I can ask you how the last window went.\n\nUse /help for the full command list.",
		escape(user.FirstName), b.config.CheckinWindowMinutes,
	)
	return b.sendWithReplyMarkup(msg.Chat.ID, text, mainMenuKeyboard())
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := strings.Join([]string{
		"<b>Commands</b>",
		"/today — today's task list with completion buttons",
		"/newtemplate — create a recurring task template",
		"/templates — list templates, enable/disable/delete",
		"/checkin — review the previous time window",
		"/stats — completion summary for week, month or year",
		"/review [page] — check-in history",
		"/generate — materialize today's plan now",
		"/holiday YYYY-MM-DD on|off [name] — override the holiday calendar",
		"/holidays YYYY-MM-DD YYYY-MM-DD — show the calendar for a range",
	}, "\n")
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	today := model.DateOf(b.clock.Now())
	instances, err := b.instanceSvc.ListByDate(ctx, user.ID, today)
	if err != nil {
		return err
	}

	if len(instances) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing planned for today. /newtemplate or /generate can change that.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Plan for %s</b>\n\n", today.Format("2006-01-02")))

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, instance := range instances {
		builder.WriteString(formatInstance(instance))
		if instance.Status == model.StatusCompleted || instance.Status == model.StatusCancelled {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ %s", shortTitle(instance.Title, 24)),
				fmt.Sprintf("%s%d", cbDonePrefix, instance.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData(
				"🚫",
				fmt.Sprintf("%s%d", cbCancelTaskPrefix, instance.ID),
			),
		))
	}

	if len(rows) == 0 {
		return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, strings.TrimSpace(builder.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleTemplates(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	templates, err := b.templateSvc.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		return b.sendText(msg.Chat.ID, "No templates yet. /newtemplate creates one.")
	}

	var builder strings.Builder
	builder.WriteString("♻️ <b>Templates</b>\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, template := range templates {
		builder.WriteString(formatTemplate(template))

		toggle := tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("⏸ %s", shortTitle(template.Title, 20)),
			fmt.Sprintf("%s%d", cbTemplateOffPrefix, template.ID),
		)
		if !template.Enabled {
			toggle = tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("▶️ %s", shortTitle(template.Title, 20)),
				fmt.Sprintf("%s%d", cbTemplateOnPrefix, template.ID),
			)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			toggle,
			tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbTemplateDelPrefix, template.ID)),
		))
	}

	return b.sendWithReplyMarkup(msg.Chat.ID, strings.TrimSpace(builder.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Week", cbStatsPrefix+string(service.PeriodWeek)),
			tgbotapi.NewInlineKeyboardButtonData("Month", cbStatsPrefix+string(service.PeriodMonth)),
			tgbotapi.NewInlineKeyboardButtonData("Year", cbStatsPrefix+string(service.PeriodYear)),
		))
		return b.sendWithReplyMarkup(msg.Chat.ID, "Which period?", markup)
	}

	period, err := service.ParsePeriod(arg)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Period must be week, month or year.")
	}
	return b.sendStats(ctx, msg.Chat.ID, user.ID, period)
}

func (b *Bot) sendStats(ctx context.Context, chatID int64, userID uint, period service.Period) error {
	summary, err := b.statsSvc.Summary(ctx, userID, period, b.clock.Now())
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"📊 <b>%s</b> (%s — %s)\n\n"+
			"Tasks: %d total, %d completed, %d ad-hoc\n"+
			"Minutes: %d completed of %d planned\n"+
			"Task completion: %.0f%%\n"+
			"Minute completion: %.0f%%",
		summary.Period,
		summary.StartDate.Format("2006-01-02"),
		summary.EndDate.Format("2006-01-02"),
		summary.TotalTasks, summary.CompletedTasks, summary.AdHocTasks,
		summary.CompletedMinutes, summary.PlannedMinutes,
		summary.TaskCompletionRate*100,
		summary.MinuteCompletionRate*100,
	)
	return b.sendText(chatID, text)
}

func (b *Bot) handleReview(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	page := 1
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		if parsed, err := strconv.Atoi(arg); err == nil && parsed > 0 {
			page = parsed
		}
	}

	result, err := b.statsSvc.ReviewPage(ctx, user.ID, page, 5, nil)
	if err != nil {
		return err
	}
	if len(result.Items) == 0 {
		return b.sendText(msg.Chat.ID, "No check-ins on this page.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗂 <b>Check-ins</b> (page %d of %d)\n\n", result.Page, result.TotalPages))
	for _, item := range result.Items {
		builder.WriteString(fmt.Sprintf("⏱ %s — %s\n",
			item.WindowStart.Format("2006-01-02 15:04"),
			item.WindowEnd.Format("15:04"),
		))
		if item.OverallComment != "" {
			builder.WriteString(fmt.Sprintf("   💬 %s\n", escape(item.OverallComment)))
		}
		for _, record := range item.Records {
			builder.WriteString(fmt.Sprintf("   • task #%d: +%d min", record.TaskInstanceID, record.AddedMinutes))
			if record.Comment != "" {
				builder.WriteString(fmt.Sprintf(" — %s", escape(record.Comment)))
			}
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleGenerate(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	created, err := b.recurrenceSvc.GenerateForDate(ctx, b.clock.Now())
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Plan generated: %d new task(s). /today shows the list.", created))
}

func (b *Bot) handleHoliday(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /holiday YYYY-MM-DD on|off [name]")
	}

	date, err := model.ParseDate(args[0], b.config.Location)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}

	var isHoliday bool
	switch strings.ToLower(args[1]) {
	case "on":
		isHoliday = true
	case "off":
		isHoliday = false
	default:
		return b.sendText(msg.Chat.ID, "Second argument must be on or off.")
	}

	day, err := b.holidaySvc.Upsert(ctx, date, isHoliday, strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Saved: %s", formatHolidayDay(day)))
}

func (b *Bot) handleHolidays(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	now := b.clock.Now()
	from := model.DateOf(now)
	to := from.AddDate(0, 0, 13)
	if len(args) >= 2 {
		var err error
		if from, err = model.ParseDate(args[0], b.config.Location); err != nil {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
		if to, err = model.ParseDate(args[1], b.config.Location); err != nil {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
	}

	days, err := b.holidaySvc.ListRange(ctx, from, to)
	if err != nil {
		if service.IsValidation(err) {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
		return err
	}

	var builder strings.Builder
	builder.WriteString("🗓 <b>Holiday calendar</b>\n\n")
	for _, day := range days {
		builder.WriteString(formatHolidayDay(day))
		builder.WriteByte('\n')
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("ack callback: %v", err)
		}
	}()

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		id, err := parseID(data, cbDonePrefix)
		if err != nil {
			return err
		}
		instance, err := b.instanceSvc.Get(ctx, user.ID, id)
		if err != nil {
			return b.replyServiceError(chatID, err)
		}
		remaining := instance.PlannedMinutes - instance.CompletedMinutes
		if remaining <= 0 {
			remaining = 1
		}
		updated, err := b.instanceSvc.AddCompletionMinutes(ctx, user.ID, id, remaining)
		if err != nil {
			return b.replyServiceError(chatID, err)
		}
		return b.sendText(chatID, fmt.Sprintf("✅ <b>%s</b> marked %s.", escape(updated.Title), updated.Status))

	case strings.HasPrefix(data, cbCancelTaskPrefix):
		id, err := parseID(data, cbCancelTaskPrefix)
		if err != nil {
			return err
		}
		updated, err := b.instanceSvc.SetStatus(ctx, user.ID, id, model.StatusCancelled)
		if err != nil {
			return b.replyServiceError(chatID, err)
		}
		return b.sendText(chatID, fmt.Sprintf("🚫 <b>%s</b> cancelled.", escape(updated.Title)))

	case strings.HasPrefix(data, cbTemplateOnPrefix):
		id, err := parseID(data, cbTemplateOnPrefix)
		if err != nil {
			return err
		}
		if _, err := b.templateSvc.SetEnabled(ctx, user.ID, id, true); err != nil {
			return b.replyServiceError(chatID, err)
		}
		return b.sendText(chatID, "Template enabled.")

	case strings.HasPrefix(data, cbTemplateOffPrefix):
		id, err := parseID(data, cbTemplateOffPrefix)
		if err != nil {
			return err
		}
		if _, err := b.templateSvc.SetEnabled(ctx, user.ID, id, false); err != nil {
			return b.replyServiceError(chatID, err)
		}
		return b.sendText(chatID, "Template paused. Already materialized tasks stay.")

	case strings.HasPrefix(data, cbTemplateDelPrefix):
		id, err := parseID(data, cbTemplateDelPrefix)
		if err != nil {
			return err
		}
		if err := b.templateSvc.Delete(ctx, user.ID, id); err != nil {
			return b.replyServiceError(chatID, err)
		}
		return b.sendText(chatID, "Template deleted.")

	case strings.HasPrefix(data, cbStatsPrefix):
		period, err := service.ParsePeriod(strings.TrimPrefix(data, cbStatsPrefix))
		if err != nil {
			return err
		}
		return b.sendStats(ctx, chatID, user.ID, period)
	}

	return nil
}

// SendDailyPlans messages every user their freshly generated plan for today.
func (b *Bot) SendDailyPlans(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	today := model.DateOf(b.clock.Now())
	for _, user := range users {
		instances, err := b.instanceSvc.ListByDate(ctx, user.ID, today)
		if err != nil {
			return err
		}
		if len(instances) == 0 {
			continue
		}

		var builder strings.Builder
		builder.WriteString(fmt.Sprintf("🌅 <b>Your plan for %s</b>\n\n", today.Format("2006-01-02")))
		for _, instance := range instances {
			builder.WriteString(formatInstance(instance))
		}
		if err := b.sendText(user.TelegramID, strings.TrimSpace(builder.String())); err != nil {
			log.Printf("send daily plan to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// SendCheckinPrompts nudges every user whose previous window has planned
// tasks but no submitted check-in yet.
func (b *Bot) SendCheckinPrompts(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	now := b.clock.Now()
	for _, user := range users {
		window, err := b.checkinSvc.PendingWindowPrompt(ctx, user.ID, now, b.config.CheckinWindowMinutes)
		if err != nil {
			return err
		}
		if window.Submitted || len(window.PlannedTasks) == 0 {
			continue
		}

		var builder strings.Builder
		builder.WriteString(fmt.Sprintf("⏱ How did %s — %s go?\n\n",
			window.WindowStart.Format("15:04"), window.WindowEnd.Format("15:04")))
		for _, task := range window.PlannedTasks {
			builder.WriteString(formatInstance(task))
		}
		builder.WriteString("\nSend /checkin to log it.")
		if err := b.sendText(user.TelegramID, strings.TrimSpace(builder.String())); err != nil {
			log.Printf("send checkin prompt to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) replyServiceError(chatID int64, err error) error {
	switch {
	case service.IsValidation(err), service.IsStateConflict(err), service.IsNotFound(err):
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendText(chatID, "⚠️ not found")
	default:
		return err
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func parseID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id from %q: %w", data, err)
	}
	return uint(id), nil
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelCheckin),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTemplate),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func isSkipInput(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "skip") || strings.TrimSpace(text) == btnSkip
}

func isCancelDialogInput(text string) bool {
	return strings.TrimSpace(text) == btnCancelDialog
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-1]) + "…"
}

func statusIcon(status model.Status) string {
	switch status {
	case model.StatusCompleted:
		return "✅"
	case model.StatusInProgress:
		return "⏳"
	case model.StatusCancelled:
		return "🚫"
	default:
		return "⬜"
	}
}

func formatInstance(instance model.Instance) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s</b>", statusIcon(instance.Status), escape(instance.Title)))
	if instance.PlannedStartTime != "" {
		sb.WriteString(fmt.Sprintf(" · %s", instance.PlannedStartTime))
	}
	if instance.PlannedMinutes > 0 {
		sb.WriteString(fmt.Sprintf(" · %d/%d min", instance.CompletedMinutes, instance.PlannedMinutes))
	}
	if instance.AdHoc {
		sb.WriteString(" · ad-hoc")
	}
	if instance.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", escape(instance.Description)))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatTemplate(template model.Template) string {
	var sb strings.Builder
	state := "▶️"
	if !template.Enabled {
		state = "⏸"
	}
	sb.WriteString(fmt.Sprintf("%s <b>%s</b> · %s · %d min · P%d",
		state, escape(template.Title), describeRecurrence(template), template.EstimatedMinutes, template.Priority))
	if template.DefaultStartTime != "" {
		sb.WriteString(fmt.Sprintf(" · at %s", template.DefaultStartTime))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func describeRecurrence(template model.Template) string {
	switch template.RecurrenceType {
	case model.RecurDaily:
		return "daily"
	case model.RecurWorkday:
		return "workdays"
	case model.RecurHoliday:
		return "holidays"
	case model.RecurWeekly:
		return "every " + weekdayName(template.DayOfWeek)
	case model.RecurSpecificDate:
		if template.SpecificDate != nil {
			return "on " + template.SpecificDate.Format("2006-01-02")
		}
		return "on a date"
	case model.RecurIntervalDays:
		return fmt.Sprintf("every %d days", template.IntervalDays)
	default:
		return strings.ToLower(string(template.RecurrenceType))
	}
}

func weekdayName(iso int) string {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if iso < 1 || iso > 7 {
		return "?"
	}
	return names[iso-1]
}

func formatHolidayDay(day service.HolidayDay) string {
	kind := "workday"
	if day.IsHoliday {
		kind = "holiday"
	}
	line := fmt.Sprintf("%s %s — %s", day.Date.Format("2006-01-02"), day.Date.Format("Mon"), kind)
	if day.Name != "" {
		line += " (" + escape(day.Name) + ")"
	}
	if day.Overridden {
		line += " *"
	}
	return line
}
