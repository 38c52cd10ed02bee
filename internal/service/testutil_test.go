package service

import (
	"context"
	"testing"
	"time"

	"club-room-booking/internal/models"
	"club-room-booking/internal/notify"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	monday  = "2024-03-04"
	tuesday = "2024-03-05"
	sunday  = "2024-03-10"
)

var (
	student = Actor{UID: "stu-1", Email: "ada@mylaurier.ca", DisplayName: "Ada", Role: models.RoleUser}
	other   = Actor{UID: "stu-2", Email: "bo@mylaurier.ca", DisplayName: "Bo", Role: models.RoleUser}
	admin   = Actor{UID: "adm-1", Email: "admin@mylaurier.ca", DisplayName: "Room Admin", Role: models.RoleAdmin}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database shared and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	sched     *schedule.Schedule
	rooms     *repository.RoomRepository
	calendars *repository.CalendarRepository
	bookings  *repository.BookingRepository
	events    *notify.Recorder
	booking   *BookingService
	room      *RoomService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	f := &fixture{
		db:        db,
		sched:     schedule.MustDefault(),
		rooms:     repository.NewRoomRepo(db),
		calendars: repository.NewCalendarRepo(db),
		bookings:  repository.NewBookingRepo(db),
		events:    &notify.Recorder{},
	}
	f.booking = NewBookingService(db, f.sched, f.rooms, f.bookings, f.calendars, f.events)
	f.booking.now = func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) }
	f.room = NewRoomService(db, f.sched, f.rooms, f.calendars)

	if _, err := f.room.SeedRooms(context.Background()); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	return f
}

func (f *fixture) create(t *testing.T, roomID, date string, start, end int, user Actor) (string, error) {
	t.Helper()
	return f.booking.CreateBookingRequest(context.Background(), CreateBookingInput{
		RoomID:    roomID,
		Date:      date,
		StartSlot: start,
		EndSlot:   end,
		User:      user,
	})
}

func (f *fixture) mustCreate(t *testing.T, roomID, date string, start, end int) string {
	t.Helper()
	id, err := f.create(t, roomID, date, start, end, student)
	if err != nil {
		t.Fatalf("create %s %s [%d,%d): %v", roomID, date, start, end, err)
	}
	return id
}

func (f *fixture) calendar(t *testing.T, roomID, date string) *models.RoomCalendar {
	t.Helper()
	cal, err := f.calendars.Find(roomID, date)
	if err != nil {
		t.Fatalf("find calendar: %v", err)
	}
	return cal
}

func (f *fixture) request(t *testing.T, id string) *models.BookingRequest {
	t.Helper()
	req, err := f.bookings.GetBookingByID(id)
	if err != nil {
		t.Fatalf("get request %s: %v", id, err)
	}
	return req
}

// assertConsistent fails when the calendar and its requests disagree
func (f *fixture) assertConsistent(t *testing.T, roomID, date string) {
	t.Helper()
	reqs, err := f.bookings.ListHoldingSlots(roomID, date)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if problems := CheckCalendar(f.calendar(t, roomID, date), reqs); len(problems) > 0 {
		t.Fatalf("calendar %s %s inconsistent: %v", roomID, date, problems)
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
