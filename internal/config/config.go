package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string

	// Optional regrade notifications to a staff chat.
	BotToken     string
	NotifyChatID int64

	// Seeded course for single-course deployments.
	CourseCode     string
	CourseName     string
	CourseSemester string
	CourseYear     string
}

func Load() (*Config, error) {
	chatID, err := parseChatID(os.Getenv("NOTIFY_CHAT_ID"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:    mustEnv("DATABASE_URL"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Env:            getenv("ENV", "dev"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		BotToken:       os.Getenv("BOT_TOKEN"),
		NotifyChatID:   chatID,
		CourseCode:     getenv("COURSE_CODE", "CSCB20"),
		CourseName:     getenv("COURSE_NAME", "Introduction to Databases and Web Applications"),
		CourseSemester: getenv("COURSE_SEMESTER", "Winter"),
		CourseYear:     getenv("COURSE_YEAR", "2026"),
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseChatID(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
