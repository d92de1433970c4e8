package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken        string
	DatabaseURL          string
	Location             *time.Location
	GenerationTime       string // HH:MM, daily plan generation
	CheckinWindowMinutes int
	CheckinPromptEvery   time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:        strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GenerationTime:       strings.TrimSpace(os.Getenv("GENERATION_TIME")),
		CheckinWindowMinutes: parsePositiveInt(os.Getenv("CHECKIN_WINDOW_MINUTES")),
		CheckinPromptEvery:   parseMinutes(os.Getenv("CHECKIN_PROMPT_INTERVAL_MINUTES")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "everydo.db"
	}
	if cfg.GenerationTime == "" {
		cfg.GenerationTime = "00:05"
	}
	if cfg.CheckinWindowMinutes == 0 {
		cfg.CheckinWindowMinutes = 60
	}
	if cfg.CheckinWindowMinutes > 720 {
		return cfg, fmt.Errorf("CHECKIN_WINDOW_MINUTES must be at most 720")
	}
	if cfg.CheckinPromptEvery == 0 {
		cfg.CheckinPromptEvery = time.Duration(cfg.CheckinWindowMinutes) * time.Minute
	}

	tz := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tz == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseMinutes(raw string) time.Duration {
	n := parsePositiveInt(raw)
	if n == 0 {
		return 0
	}
	return time.Duration(n) * time.Minute
}
