package config

import (
	"testing"
	"time"
)

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays(" 1, 3,5 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	if len(days) != len(want) {
		t.Fatalf("days = %v", days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days = %v, want %v", days, want)
		}
	}

	for _, bad := range []string{"7", "-1", "mon"} {
		if _, err := ParseWeekdays(bad); err == nil {
			t.Errorf("ParseWeekdays(%q) accepted", bad)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CALENDAR_AUDIT_INTERVAL", "")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "bogus")

	cfg := LoadConfig()
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.JWT.AccessTokenExpiry != 15*time.Minute {
		t.Fatalf("invalid expiry should fall back, got %s", cfg.JWT.AccessTokenExpiry)
	}
	if cfg.Worker.CalendarAuditInterval != 0 {
		t.Fatalf("audit worker should default to off, got %s", cfg.Worker.CalendarAuditInterval)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestBuildSchedule(t *testing.T) {
	cfg := &Config{Schedule: ScheduleConfig{
		OperatingDays:       "1,2,3,4,5",
		Timezone:            "America/Toronto",
		OpenTime:            "08:30",
		CloseTime:           "23:00",
		SlotIntervalMinutes: 30,
		MaxBookingHours:     5,
	}}
	sched, err := cfg.BuildSchedule()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if sched.TotalSlots() != 29 || sched.MaxSlotsPerBooking() != 10 {
		t.Fatalf("slots = %d max = %d", sched.TotalSlots(), sched.MaxSlotsPerBooking())
	}

	cfg.Schedule.OperatingDays = "1,9"
	if _, err := cfg.BuildSchedule(); err == nil {
		t.Fatal("invalid operating day accepted")
	}
	cfg.Schedule.OperatingDays = "1"
	cfg.Schedule.Timezone = "Mars/Olympus"
	if _, err := cfg.BuildSchedule(); err == nil {
		t.Fatal("unknown timezone accepted")
	}
}
