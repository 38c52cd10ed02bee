package service

import (
	"context"
	"log"
	"time"

	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"

	"gorm.io/gorm"
)

// WorkerService periodically cross-checks stored calendars against the
// requests they index and logs every divergence it finds.
type WorkerService struct {
	db           *gorm.DB
	sched        *schedule.Schedule
	calendarRepo *repository.CalendarRepository
	bookingRepo  *repository.BookingRepository
	interval     time.Duration
	now          func() time.Time
}

func NewWorkerService(
	db *gorm.DB,
	sched *schedule.Schedule,
	calendarRepo *repository.CalendarRepository,
	bookingRepo *repository.BookingRepository,
	interval time.Duration,
) *WorkerService {
	return &WorkerService{
		db:           db,
		sched:        sched,
		calendarRepo: calendarRepo,
		bookingRepo:  bookingRepo,
		interval:     interval,
		now:          time.Now,
	}
}

// Start runs the audit every interval until ctx is cancelled
func (w *WorkerService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("Calendar audit worker started - checking every %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Calendar audit worker stopped")
			return
		case <-ticker.C:
			if _, err := w.AuditCalendars(ctx); err != nil {
				log.Printf("Error auditing calendars: %v", err)
			}
		}
	}
}

// AuditCalendars checks every calendar dated today or later and returns the
// problems found, keyed by "room/date".
func (w *WorkerService) AuditCalendars(ctx context.Context) (map[string][]string, error) {
	db := w.db.WithContext(ctx)
	calendars, err := w.calendarRepo.WithDB(db).ListFrom(w.sched.Today(w.now()))
	if err != nil {
		return nil, err
	}

	found := make(map[string][]string)
	for i := range calendars {
		cal := &calendars[i]
		requests, err := w.bookingRepo.WithDB(db).ListHoldingSlots(cal.RoomID, cal.Date)
		if err != nil {
			log.Printf("Error fetching requests for %s %s: %v", cal.RoomID, cal.Date, err)
			continue
		}
		problems := CheckCalendar(cal, requests)
		if len(problems) == 0 {
			continue
		}
		key := cal.RoomID + "/" + cal.Date
		found[key] = problems
		for _, p := range problems {
			log.Printf("[%s] calendar divergence: %s", key, p)
		}
	}
	return found, nil
}
