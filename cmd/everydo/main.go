package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"everydo/internal/bot"
	"everydo/internal/clock"
	"everydo/internal/config"
	"everydo/internal/repository"
	"everydo/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	checkinRepo := repository.NewCheckinRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)

	holidaySvc := service.NewHolidayService(holidayRepo)
	templateSvc := service.NewTemplateService(templateRepo)
	instanceSvc := service.NewInstanceService(instanceRepo)
	recurrenceSvc := service.NewRecurrenceService(templateSvc, instanceSvc, holidaySvc)
	checkinSvc := service.NewCheckinService(checkinRepo, instanceSvc)
	statsSvc := service.NewStatsService(instanceRepo, checkinRepo)

	clk := clock.System{Location: cfg.Location}

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, templateSvc, instanceSvc,
		checkinSvc, recurrenceSvc, statsSvc, holidaySvc, &cfg, clk)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location)

	if _, err := scheduler.ScheduleDaily(cfg.GenerationTime, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		created, err := recurrenceSvc.GenerateForDate(jobCtx, clk.Now())
		if err != nil {
			log.Printf("generate plan: %v", err)
			return
		}
		log.Printf("[info] daily generation created %d instance(s)", created)
		if err := telegramBot.SendDailyPlans(jobCtx); err != nil {
			log.Printf("send daily plans: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule generation: %v", err)
	}

	if _, err := scheduler.ScheduleInterval(cfg.CheckinPromptEvery, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := telegramBot.SendCheckinPrompts(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("checkin prompts: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule checkin prompts: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Everydo bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
