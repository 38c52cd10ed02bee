package service

import (
	"errors"

	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"

	"gorm.io/gorm"
)

type calendarKey struct {
	roomID string
	date   string
}

// bookingTx is the only path through which a booking operation writes. It
// loads each calendar at most once per transaction, so a second access to
// the same room and date sees the in-memory edits, and flush persists the
// request together with every calendar it touched.
type bookingTx struct {
	rooms     *repository.RoomRepository
	bookings  *repository.BookingRepository
	calendars *repository.CalendarRepository

	loaded  map[calendarKey]*models.RoomCalendar
	touched []calendarKey

	request    *models.BookingRequest
	newRequest bool
	history    []*models.HistoryEntry
}

func newBookingTx(tx *gorm.DB, s *BookingService) *bookingTx {
	return &bookingTx{
		rooms:     s.roomRepo.WithDB(tx),
		bookings:  s.bookingRepo.WithDB(tx),
		calendars: s.calendarRepo.WithDB(tx),
		loaded:    make(map[calendarKey]*models.RoomCalendar),
	}
}

func (u *bookingTx) room(id string) (*models.Room, error) {
	room, err := u.rooms.GetRoomByID(id)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, newError(ErrRoomNotFound, "Select a room to continue")
	}
	return room, err
}

// lockRequest loads a request and holds its row for the transaction
func (u *bookingTx) lockRequest(id string) (*models.BookingRequest, error) {
	req, err := u.bookings.FindBookingForUpdate(id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, newError(ErrNotFound, "Request not found")
	}
	return req, err
}

// calendar returns the locked calendar of a room and date, reusing the copy
// already loaded in this transaction.
func (u *bookingTx) calendar(roomID, date string) (*models.RoomCalendar, error) {
	key := calendarKey{roomID: roomID, date: date}
	if cal, ok := u.loaded[key]; ok {
		return cal, nil
	}
	cal, err := u.calendars.Lock(roomID, date)
	if err != nil {
		return nil, err
	}
	u.loaded[key] = cal
	return cal, nil
}

// touch marks a loaded calendar for writing on flush
func (u *bookingTx) touch(cal *models.RoomCalendar) {
	key := calendarKey{roomID: cal.RoomID, date: cal.Date}
	for _, k := range u.touched {
		if k == key {
			return
		}
	}
	u.touched = append(u.touched, key)
}

func (u *bookingTx) create(req *models.BookingRequest) {
	u.request = req
	u.newRequest = true
}

func (u *bookingTx) update(req *models.BookingRequest) {
	u.request = req
	u.newRequest = false
}

func (u *bookingTx) appendHistory(entry *models.HistoryEntry) {
	u.history = append(u.history, entry)
}

func (u *bookingTx) flush() error {
	if u.request != nil {
		var err error
		if u.newRequest {
			err = u.bookings.CreateBooking(u.request)
		} else {
			err = u.bookings.UpdateBooking(u.request)
		}
		if err != nil {
			return err
		}
	}
	if err := u.bookings.AppendHistory(u.history...); err != nil {
		return err
	}
	for _, key := range u.touched {
		if err := u.calendars.Save(u.loaded[key]); err != nil {
			return err
		}
	}
	return nil
}
