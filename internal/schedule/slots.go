package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	minutesPerDay = 24 * 60
)

// ErrInvalidWindow is matched (errors.Is) by every window validation failure.
var ErrInvalidWindow = errors.New("invalid booking window")

// WindowError describes why a window was rejected. The message is meant to be
// shown to the requester as is.
type WindowError struct {
	Reason string
}

func (e *WindowError) Error() string { return e.Reason }

func (e *WindowError) Unwrap() error { return ErrInvalidWindow }

func invalidWindow(format string, args ...interface{}) error {
	return &WindowError{Reason: fmt.Sprintf(format, args...)}
}

// SlotOption is one selectable boundary in a day, used by pickers.
type SlotOption struct {
	Slot  int    `json:"slot"`
	Label string `json:"label"`
}

// ParseClock converts an "HH:MM" wall-clock string to minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as "HH:MM", wrapping at 24h.
func FormatClock(totalMinutes int) string {
	normalized := ((totalMinutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", normalized/60, normalized%60)
}

// TimeToSlot maps a wall-clock time to the slot containing it, clamped to
// [0, TotalSlots].
func (s *Schedule) TimeToSlot(value string) (int, error) {
	minutes, err := ParseClock(value)
	if err != nil {
		return 0, err
	}
	diff := minutes - s.openMinutes
	if diff < 0 {
		return 0, nil
	}
	slot := diff / s.interval
	if slot > s.totalSlots {
		slot = s.totalSlots
	}
	return slot, nil
}

// SlotToTime is the inverse of TimeToSlot. The closing boundary maps to the
// configured close time exactly.
func (s *Schedule) SlotToTime(slot int) string {
	if slot == s.totalSlots {
		return s.closeTime
	}
	return FormatClock(s.openMinutes + slot*s.interval)
}

// BuildSlotRange returns the slots of the half-open window [start, end).
func BuildSlotRange(start, end int) []int {
	if end <= start {
		return []int{}
	}
	out := make([]int, 0, end-start)
	for slot := start; slot < end; slot++ {
		out = append(out, slot)
	}
	return out
}

func (s *Schedule) DescribeSlotRange(start, end int) string {
	return s.SlotToTime(start) + "-" + s.SlotToTime(end)
}

// DurationLabel renders the window length as "2h", "1h 30m" or "0m".
func (s *Schedule) DurationLabel(start, end int) string {
	minutes := (end - start) * s.interval
	if minutes <= 0 {
		return "0m"
	}
	hours, mins := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
}

// SlotOptions lists every boundary from opening to closing.
func (s *Schedule) SlotOptions() []SlotOption {
	out := make([]SlotOption, 0, s.totalSlots+1)
	for slot := 0; slot <= s.totalSlots; slot++ {
		out = append(out, SlotOption{Slot: slot, Label: s.SlotToTime(slot)})
	}
	return out
}

// ParseDate parses an ISO calendar date as midnight in the operating timezone.
func (s *Schedule) ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.location)
}

// Today returns the current calendar date in the operating timezone.
func (s *Schedule) Today(now time.Time) string {
	return now.In(s.location).Format(dateLayout)
}

// IsOperatingDay reports whether the calendar date falls on an operating
// weekday. The weekday is taken in the operating timezone, never the host's.
func (s *Schedule) IsOperatingDay(date string) bool {
	d, err := s.ParseDate(date)
	if err != nil {
		return false
	}
	return s.dayset[d.Weekday()]
}

// ValidateSlotWindow is the only check of window legality. Every mutation of a
// calendar must pass through it first.
func (s *Schedule) ValidateSlotWindow(date string, start, end int) error {
	if strings.TrimSpace(date) == "" {
		return invalidWindow("Please select a date")
	}
	if _, err := s.ParseDate(date); err != nil {
		return invalidWindow("Please select a valid date (YYYY-MM-DD)")
	}
	if !s.IsOperatingDay(date) {
		return invalidWindow("Bookings are limited to %s", s.describeDays())
	}
	if start >= end {
		return invalidWindow("End time must be after start time")
	}
	if start < 0 || end > s.totalSlots {
		return invalidWindow("Selected time falls outside operating hours")
	}
	if end-start > s.maxSlots {
		hours := strconv.FormatFloat(float64(s.MaxBookingMinutes())/60, 'f', -1, 64)
		return invalidWindow("Bookings can be up to %s hours (max %d slots).", hours, s.maxSlots)
	}
	return nil
}

// describeDays renders the operating days as "Monday through Friday" when they
// form a consecutive run, otherwise as a list.
func (s *Schedule) describeDays() string {
	if len(s.days) == 1 {
		return s.days[0].String()
	}
	consecutive := true
	for i := 1; i < len(s.days); i++ {
		if s.days[i] != s.days[i-1]+1 {
			consecutive = false
			break
		}
	}
	if consecutive && len(s.days) > 2 {
		return s.days[0].String() + " through " + s.days[len(s.days)-1].String()
	}
	names := make([]string, len(s.days))
	for i, d := range s.days {
		names[i] = d.String()
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
