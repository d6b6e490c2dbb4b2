package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the service recognises. Values come from the
// environment (godotenv loads .env in the binaries); defaults match policy.
type Config struct {
	// Leave policy knobs
	AnnualAdvanceNoticeDays int
	WFHAdvanceNoticeDays    int
	StalePendingWeeks       int
	SickDocDeadlineHours    int
	AnnualCarryForwardCap   int
	MinLeaveCommentLength   int
	WeekendDays             map[time.Weekday]bool

	// Action tokens
	ActionTokenTTLHours int
	ClockSkewTolerance  time.Duration

	// Infrastructure
	Port        string
	BaseURL     string
	JWTSecret   string
	RedisAddr   string
	KafkaBroker string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func Load() Config {
	return Config{
		AnnualAdvanceNoticeDays: envInt("ANNUAL_ADVANCE_NOTICE_DAYS", 5),
		WFHAdvanceNoticeDays:    envInt("WFH_ADVANCE_NOTICE_DAYS", 1),
		StalePendingWeeks:       envInt("STALE_PENDING_WEEKS", 3),
		SickDocDeadlineHours:    envInt("SICK_DOC_DEADLINE_HOURS", 48),
		AnnualCarryForwardCap:   envInt("ANNUAL_CARRY_FORWARD_CAP", 5),
		MinLeaveCommentLength:   envInt("MIN_LEAVE_COMMENT_LENGTH", 40),
		WeekendDays:             envWeekend("WEEKEND_DAYS"),

		ActionTokenTTLHours: envInt("ACTION_TOKEN_TTL_HOURS", 72),
		ClockSkewTolerance:  time.Duration(envInt("CLOCK_SKEW_TOLERANCE_SECONDS", 0)) * time.Second,

		Port:        envStr("PORT", "3000"),
		BaseURL:     envStr("BASE_URL", "http://localhost:3000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RedisAddr:   envStr("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: os.Getenv("KAFKA_BROKER"),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     envStr("DB_NAME", "hrflow"),
		DBPort:     envStr("DB_PORT", "5432"),
		DBSSLMode:  envStr("DB_SSLMODE", "disable"),

		SMTPHost: envStr("SMTP_HOST", "localhost"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: envStr("MAIL_FROM", "hr@hrflow.local"),
	}
}

func (c Config) ActionTokenTTL() time.Duration {
	return time.Duration(c.ActionTokenTTLHours) * time.Hour
}

func (c Config) StalePendingAge() time.Duration {
	return time.Duration(c.StalePendingWeeks) * 7 * 24 * time.Hour
}

func (c Config) SickDocDeadline() time.Duration {
	return time.Duration(c.SickDocDeadlineHours) * time.Hour
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envWeekend parses a comma-separated list of weekday indices
// (0=Sunday .. 6=Saturday). Default is Saturday and Sunday.
func envWeekend(key string) map[time.Weekday]bool {
	v := os.Getenv(key)
	if v == "" {
		return map[time.Weekday]bool{time.Saturday: true, time.Sunday: true}
	}

	weekend := make(map[time.Weekday]bool)
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		weekend[time.Weekday(n)] = true
	}
	if len(weekend) == 0 {
		return map[time.Weekday]bool{time.Saturday: true, time.Sunday: true}
	}
	return weekend
}
