package schedule

import (
	"fmt"
	"sort"
	"time"

	// Operating timezone lookups must not depend on the host's zoneinfo.
	_ "time/tzdata"
)

// Config is the raw schedule configuration as loaded at startup
type Config struct {
	OperatingDays       []time.Weekday
	Timezone            string
	OpenTime            string
	CloseTime           string
	SlotIntervalMinutes int
	MaxBookingHours     int
}

// DefaultConfig returns the schedule the club rooms are operated on:
// Monday to Friday, 08:30 to 23:00 Toronto time, 30 minute slots, 5 hour cap.
func DefaultConfig() Config {
	return Config{
		OperatingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Timezone:            "America/Toronto",
		OpenTime:            "08:30",
		CloseTime:           "23:00",
		SlotIntervalMinutes: 30,
		MaxBookingHours:     5,
	}
}

// Schedule is the validated schedule configuration. It is built once and
// never mutated, so it is safe to share between goroutines.
type Schedule struct {
	days         []time.Weekday
	dayset       map[time.Weekday]bool
	timezone     string
	location     *time.Location
	openTime     string
	closeTime    string
	openMinutes  int
	closeMinutes int
	interval     int
	maxSlots     int
	totalSlots   int
}

// New validates cfg and derives the slot counts
func New(cfg Config) (*Schedule, error) {
	if len(cfg.OperatingDays) == 0 {
		return nil, fmt.Errorf("schedule: at least one operating day is required")
	}
	if cfg.SlotIntervalMinutes <= 0 {
		return nil, fmt.Errorf("schedule: slot interval must be positive, got %d", cfg.SlotIntervalMinutes)
	}

	openMinutes, err := ParseClock(cfg.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("schedule: open time: %w", err)
	}
	closeMinutes, err := ParseClock(cfg.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("schedule: close time: %w", err)
	}
	if closeMinutes <= openMinutes {
		return nil, fmt.Errorf("schedule: close time %s must be after open time %s", cfg.CloseTime, cfg.OpenTime)
	}
	window := closeMinutes - openMinutes
	if window%cfg.SlotIntervalMinutes != 0 {
		return nil, fmt.Errorf("schedule: operating window of %d minutes is not a multiple of %d", window, cfg.SlotIntervalMinutes)
	}

	maxMinutes := cfg.MaxBookingHours * 60
	if maxMinutes <= 0 || maxMinutes%cfg.SlotIntervalMinutes != 0 {
		return nil, fmt.Errorf("schedule: max booking of %d hours does not fit %d minute slots", cfg.MaxBookingHours, cfg.SlotIntervalMinutes)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule: timezone %q: %w", cfg.Timezone, err)
	}

	dayset := make(map[time.Weekday]bool, len(cfg.OperatingDays))
	for _, d := range cfg.OperatingDays {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("schedule: invalid weekday %d", d)
		}
		dayset[d] = true
	}
	days := make([]time.Weekday, 0, len(dayset))
	for d := range dayset {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	return &Schedule{
		days:         days,
		dayset:       dayset,
		timezone:     cfg.Timezone,
		location:     loc,
		openTime:     FormatClock(openMinutes),
		closeTime:    FormatClock(closeMinutes),
		openMinutes:  openMinutes,
		closeMinutes: closeMinutes,
		interval:     cfg.SlotIntervalMinutes,
		maxSlots:     maxMinutes / cfg.SlotIntervalMinutes,
		totalSlots:   window / cfg.SlotIntervalMinutes,
	}, nil
}

// MustDefault builds the default schedule and panics if it is invalid.
func MustDefault() *Schedule {
	s, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schedule) OperatingDays() []time.Weekday {
	out := make([]time.Weekday, len(s.days))
	copy(out, s.days)
	return out
}

func (s *Schedule) Timezone() string { return s.timezone }
func (s *Schedule) Location() *time.Location { return s.location }
func (s *Schedule) OpenTime() string { return s.openTime }
func (s *Schedule) CloseTime() string { return s.closeTime }
func (s *Schedule) SlotIntervalMinutes() int { return s.interval }
func (s *Schedule) MaxSlotsPerBooking() int { return s.maxSlots }
func (s *Schedule) TotalSlots() int { return s.totalSlots }

// MaxBookingMinutes is the longest permitted booking
func (s *Schedule) MaxBookingMinutes() int { return s.maxSlots * s.interval }
