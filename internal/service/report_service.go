package service

import (
	"context"
	"fmt"
	"sort"

	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"

	"gorm.io/gorm"
)

type ReportService struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
}

func NewReportService(db *gorm.DB, bookingRepo *repository.BookingRepository) *ReportService {
	return &ReportService{db: db, bookingRepo: bookingRepo}
}

// RoomUsage is one room's share of a usage report
type RoomUsage struct {
	RoomID         string `json:"room_id"`
	RoomName       string `json:"room_name"`
	Bookings       int    `json:"bookings"`
	UniqueStudents int    `json:"unique_students"`
}

// UsageReport aggregates approved requests dated in [From, To)
type UsageReport struct {
	From           string                  `json:"from"`
	To             string                  `json:"to"`
	RoomID         string                  `json:"room_id,omitempty"`
	TotalBookings  int                     `json:"total_bookings"`
	UniqueStudents int                     `json:"unique_students"`
	PerRoom        []RoomUsage             `json:"per_room"`
	Bookings       []models.BookingRequest `json:"bookings"`
}

// UsageReport aggregates approved requests with from <= date < to. An empty
// roomID covers every room.
func (s *ReportService) UsageReport(ctx context.Context, from, to, roomID string) (*UsageReport, error) {
	bookings, err := s.bookingRepo.WithDB(s.db.WithContext(ctx)).ListApprovedBetween(from, to, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved bookings: %w", err)
	}

	type roomAgg struct {
		usage    RoomUsage
		students map[string]bool
	}
	perRoom := make(map[string]*roomAgg)
	students := make(map[string]bool)

	for i := range bookings {
		b := &bookings[i]
		rid := b.RoomID
		if rid == "" {
			rid = "unknown"
		}
		agg, ok := perRoom[rid]
		if !ok {
			name := b.RoomSnapshot.Data().DisplayName
			if name == "" {
				name = b.RoomName
			}
			if name == "" {
				name = "Unknown room"
			}
			agg = &roomAgg{usage: RoomUsage{RoomID: rid, RoomName: name}, students: make(map[string]bool)}
			perRoom[rid] = agg
		}
		agg.usage.Bookings++
		if uid := b.RequestedBy.UID; uid != "" {
			agg.students[uid] = true
			students[uid] = true
		}
	}

	rows := make([]RoomUsage, 0, len(perRoom))
	for _, agg := range perRoom {
		agg.usage.UniqueStudents = len(agg.students)
		rows = append(rows, agg.usage)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bookings != rows[j].Bookings {
			return rows[i].Bookings > rows[j].Bookings
		}
		return rows[i].RoomID < rows[j].RoomID
	})

	return &UsageReport{
		From:           from,
		To:             to,
		RoomID:         roomID,
		TotalBookings:  len(bookings),
		UniqueStudents: len(students),
		PerRoom:        rows,
		Bookings:       bookings,
	}, nil
}

// MonthlyUsageReport covers one calendar month
func (s *ReportService) MonthlyUsageReport(ctx context.Context, year, month int, roomID string) (*UsageReport, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	from, to := MonthRange(year, month)
	return s.UsageReport(ctx, from, to, roomID)
}

// MonthRange returns the first day of the month and the first day of the next
func MonthRange(year, month int) (string, string) {
	nextYear, nextMonth := year, month+1
	if nextMonth == 13 {
		nextYear, nextMonth = year+1, 1
	}
	return fmt.Sprintf("%04d-%02d-01", year, month), fmt.Sprintf("%04d-%02d-01", nextYear, nextMonth)
}
