package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"club-room-booking/internal/schedule"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	Server    ServerConfig
	CORS      CORSConfig
	Schedule  ScheduleConfig
	Auth      AuthConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Path     string
}

type JWTConfig struct {
	AccessSecret       string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ScheduleConfig struct {
	OperatingDays       string
	Timezone            string
	OpenTime            string
	CloseTime           string
	SlotIntervalMinutes int
	MaxBookingHours     int
}

type AuthConfig struct {
	AllowedEmailDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type RateLimitConfig struct {
	BookingsPerMinute int
	Burst             int
}

type WorkerConfig struct {
	CalendarAuditInterval time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "club_room_booking"),
			Path:     getEnv("DB_PATH", "club_room_booking.db"),
		},
		JWT: JWTConfig{
			AccessSecret:       getEnv("JWT_ACCESS_SECRET", "your-access-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Schedule: ScheduleConfig{
			OperatingDays:       getEnv("OPERATING_DAYS", "1,2,3,4,5"),
			Timezone:            getEnv("OPERATING_TIMEZONE", "America/Toronto"),
			OpenTime:            getEnv("OPEN_TIME", "08:30"),
			CloseTime:           getEnv("CLOSE_TIME", "23:00"),
			SlotIntervalMinutes: getEnvInt("SLOT_INTERVAL_MINUTES", 30),
			MaxBookingHours:     getEnvInt("MAX_BOOKING_HOURS", 5),
		},
		Auth: AuthConfig{
			AllowedEmailDomain: getEnv("ALLOWED_EMAIL_DOMAIN", "@mylaurier.ca"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "room_calendar_events"),
		},
		RateLimit: RateLimitConfig{
			BookingsPerMinute: getEnvInt("BOOKING_RATE_PER_MINUTE", 10),
			Burst:             getEnvInt("BOOKING_RATE_BURST", 3),
		},
		Worker: WorkerConfig{
			CalendarAuditInterval: parseDuration(getEnv("CALENDAR_AUDIT_INTERVAL", "0"), 0),
		},
	}

	return config
}

// BuildSchedule validates the schedule section and derives the slot layout
func (c *Config) BuildSchedule() (*schedule.Schedule, error) {
	days, err := ParseWeekdays(c.Schedule.OperatingDays)
	if err != nil {
		return nil, err
	}
	return schedule.New(schedule.Config{
		OperatingDays:       days,
		Timezone:            c.Schedule.Timezone,
		OpenTime:            c.Schedule.OpenTime,
		CloseTime:           c.Schedule.CloseTime,
		SlotIntervalMinutes: c.Schedule.SlotIntervalMinutes,
		MaxBookingHours:     c.Schedule.MaxBookingHours,
	})
}

// ParseWeekdays parses a comma separated list of weekday numbers, 0 being Sunday
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range parseList(s) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid operating day %q, expected 0-6", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Printf("Warning: Invalid integer for %s '%s', using default\n", key, value)
		return defaultValue
	}
	return n
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "0" {
		return 0
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return fallback
	}
	return duration
}

func parseList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
