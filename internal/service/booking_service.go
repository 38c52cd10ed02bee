package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"club-room-booking/internal/models"
	"club-room-booking/internal/notify"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingService struct {
	db           *gorm.DB
	sched        *schedule.Schedule
	roomRepo     *repository.RoomRepository
	bookingRepo  *repository.BookingRepository
	calendarRepo *repository.CalendarRepository
	notifier     notify.Notifier
	now          func() time.Time
}

func NewBookingService(
	db *gorm.DB,
	sched *schedule.Schedule,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
	calendarRepo *repository.CalendarRepository,
	notifier notify.Notifier,
) *BookingService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &BookingService{
		db:           db,
		sched:        sched,
		roomRepo:     roomRepo,
		bookingRepo:  bookingRepo,
		calendarRepo: calendarRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UID         string
	Email       string
	DisplayName string
	Role        string
}

func (a Actor) snapshot() models.UserSnapshot {
	snap := models.UserSnapshot{UID: a.UID, Email: a.Email, DisplayName: a.DisplayName, Role: a.Role}
	if snap.UID == "" {
		snap.UID = "system"
	}
	if snap.Email == "" {
		snap.Email = "system"
	}
	if snap.DisplayName == "" {
		snap.DisplayName = a.Email
	}
	if snap.DisplayName == "" {
		snap.DisplayName = "System"
	}
	return snap
}

// CreateBookingInput is a student's booking request
type CreateBookingInput struct {
	RoomID    string
	Date      string
	StartSlot int
	EndSlot   int
	Notes     string
	User      Actor
}

// ModifyBookingInput reschedules a request. Nil fields keep their current value.
type ModifyBookingInput struct {
	Date      *string
	StartSlot *int
	EndSlot   *int
	Reason    string
}

// CreateBookingRequest records a pending request and claims its slots
func (s *BookingService) CreateBookingRequest(ctx context.Context, in CreateBookingInput) (string, error) {
	if in.RoomID == "" {
		return "", newError(ErrRoomNotFound, "Select a room to continue")
	}
	if err := s.sched.ValidateSlotWindow(in.Date, in.StartSlot, in.EndSlot); err != nil {
		return "", err
	}

	requestID := uuid.New().String()
	err := s.inTx(ctx, requestID, models.ActionCreated, func(u *bookingTx) error {
		room, err := u.room(in.RoomID)
		if err != nil {
			return err
		}

		cal, err := u.calendar(room.ID, in.Date)
		if err != nil {
			return err
		}
		if cal.SlotMap().Conflicts(in.StartSlot, in.EndSlot, "") {
			return newError(ErrSlotConflict, "That time window is already claimed or pending review.")
		}

		req := &models.BookingRequest{
			ID:           requestID,
			RoomID:       room.ID,
			RoomName:     room.DisplayName,
			RoomSnapshot: datatypes.NewJSONType(room.Snapshot()),
			RequestedBy: models.UserSnapshot{
				UID:         in.User.UID,
				Email:       in.User.Email,
				DisplayName: firstNonEmpty(in.User.DisplayName, in.User.Email),
			},
			Date:     in.Date,
			Timezone: s.sched.Timezone(),
			Status:   models.StatusPending,
			Notes:    in.Notes,
		}
		if req.RoomName == "" {
			req.RoomName = room.ID
		}
		s.setWindow(req, in.Date, in.StartSlot, in.EndSlot)
		u.create(req)
		u.appendHistory(s.historyEntry(requestID, models.ActionCreated, in.User, firstNonEmpty(in.Notes, "Submitted request"), models.HistoryMeta{}))

		cal.SetSlots(cal.SlotMap().Apply(in.StartSlot, in.EndSlot, requestID, models.SlotPending))
		cal.AddPending(requestID)
		u.touch(cal)
		return nil
	})
	if err != nil {
		return "", err
	}
	return requestID, nil
}

// ApproveBookingRequest confirms a pending or modified request, keeping its slots
func (s *BookingService) ApproveBookingRequest(ctx context.Context, requestID string, admin Actor, adminNotes string) error {
	return s.inTx(ctx, requestID, models.ActionApproved, func(u *bookingTx) error {
		req, err := u.lockRequest(requestID)
		if err != nil {
			return err
		}
		if err := checkTransition(req, models.ActionApproved); err != nil {
			return err
		}

		cal, err := u.calendar(req.RoomID, req.Date)
		if err != nil {
			return err
		}
		if cal.SlotMap().Conflicts(req.StartSlot, req.EndSlot, requestID) {
			return newError(ErrSlotConflict, "Conflict detected while approving. Try a different time.")
		}

		req.Status = models.StatusApproved
		req.AdminNotes = firstNonEmpty(adminNotes, req.AdminNotes)
		req.Decision = "Approved for " + s.sched.DescribeSlotRange(req.StartSlot, req.EndSlot)
		u.update(req)
		u.appendHistory(s.historyEntry(requestID, models.ActionApproved, admin, adminNotes, models.HistoryMeta{}))

		cal.SetSlots(cal.SlotMap().Apply(req.StartSlot, req.EndSlot, requestID, models.SlotApproved))
		cal.RemovePending(requestID)
		u.touch(cal)
		return nil
	})
}

// RejectBookingRequest declines a request and frees its slots
func (s *BookingService) RejectBookingRequest(ctx context.Context, requestID string, admin Actor, reason string) error {
	return s.inTx(ctx, requestID, models.ActionRejected, func(u *bookingTx) error {
		req, err := u.lockRequest(requestID)
		if err != nil {
			return err
		}
		if err := checkTransition(req, models.ActionRejected); err != nil {
			return err
		}

		cal, err := u.calendar(req.RoomID, req.Date)
		if err != nil {
			return err
		}
		cal.SetSlots(cal.SlotMap().Remove(req.StartSlot, req.EndSlot, requestID))
		cal.RemovePending(requestID)
		u.touch(cal)

		req.Status = models.StatusRejected
		req.AdminNotes = reason
		req.Decision = firstNonEmpty(reason, "Rejected")
		u.update(req)
		u.appendHistory(s.historyEntry(requestID, models.ActionRejected, admin, reason, models.HistoryMeta{}))
		return nil
	})
}

// ModifyBookingRequest moves a request to a new window, possibly on another
// date. The old window is vacated and the new one claimed in one transaction.
func (s *BookingService) ModifyBookingRequest(ctx context.Context, requestID string, admin Actor, updates ModifyBookingInput) error {
	return s.inTx(ctx, requestID, models.ActionModified, func(u *bookingTx) error {
		req, err := u.lockRequest(requestID)
		if err != nil {
			return err
		}
		if err := checkTransition(req, models.ActionModified); err != nil {
			return err
		}

		from := req.Window()
		to := from
		if updates.Date != nil && *updates.Date != "" {
			to.Date = *updates.Date
		}
		if updates.StartSlot != nil {
			to.StartSlot = *updates.StartSlot
		}
		if updates.EndSlot != nil {
			to.EndSlot = *updates.EndSlot
		}
		if err := s.sched.ValidateSlotWindow(to.Date, to.StartSlot, to.EndSlot); err != nil {
			return err
		}

		source, err := u.calendar(req.RoomID, from.Date)
		if err != nil {
			return err
		}
		source.SetSlots(source.SlotMap().Remove(from.StartSlot, from.EndSlot, requestID))
		source.RemovePending(requestID)
		u.touch(source)

		// Same date resolves to source itself, already cleaned above.
		target, err := u.calendar(req.RoomID, to.Date)
		if err != nil {
			return err
		}
		if target.SlotMap().Conflicts(to.StartSlot, to.EndSlot, requestID) {
			return newError(ErrSlotConflict, "That updated time overlaps another booking.")
		}
		target.SetSlots(target.SlotMap().Apply(to.StartSlot, to.EndSlot, requestID, models.SlotModified))
		target.AddPending(requestID)
		u.touch(target)

		s.setWindow(req, to.Date, to.StartSlot, to.EndSlot)
		req.Status = models.StatusModified
		req.Decision = "Pending admin review"
		u.update(req)
		u.appendHistory(s.historyEntry(requestID, models.ActionModified, admin,
			firstNonEmpty(updates.Reason, "Updated time"),
			models.HistoryMeta{From: &from, To: &to}))
		return nil
	})
}

// GetBookingRequest returns a request with its full history
func (s *BookingService) GetBookingRequest(ctx context.Context, requestID string) (*models.BookingRequest, error) {
	req, err := s.bookingRepo.WithDB(s.db.WithContext(ctx)).GetBookingByID(requestID)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, newError(ErrNotFound, "Request not found")
	}
	return req, err
}

// ListBookingRequests returns requests matching filter ordered by date and start slot
func (s *BookingService) ListBookingRequests(ctx context.Context, filter repository.BookingFilter) ([]models.BookingRequest, error) {
	return s.bookingRepo.WithDB(s.db.WithContext(ctx)).ListBookings(filter)
}

// inTx runs fn and flushes its writes in one transaction, then announces the
// touched calendars. Nothing is written or published when fn fails.
func (s *BookingService) inTx(ctx context.Context, requestID string, action models.HistoryAction, fn func(u *bookingTx) error) error {
	var touched []calendarKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u := newBookingTx(tx, s)
		if err := fn(u); err != nil {
			return err
		}
		if err := u.flush(); err != nil {
			return err
		}
		touched = u.touched
		return nil
	})
	if err != nil {
		return err
	}
	days := make([]string, len(touched))
	for i, key := range touched {
		days[i] = key.roomID + "/" + key.date
	}
	log.Printf("Booking request %s %s [%s]", requestID, action, strings.Join(days, ", "))

	for _, key := range touched {
		event := notify.CalendarEvent{
			RoomID:    key.roomID,
			Date:      key.date,
			RequestID: requestID,
			Action:    string(action),
			At:        s.now().UTC(),
		}
		if err := s.notifier.Publish(ctx, event); err != nil {
			log.Printf("Warning: failed to publish calendar event for %s %s: %v", key.roomID, key.date, err)
		}
	}
	return nil
}

func (s *BookingService) setWindow(req *models.BookingRequest, date string, start, end int) {
	req.Date = date
	req.StartSlot = start
	req.EndSlot = end
	req.StartTime = s.sched.SlotToTime(start)
	req.EndTime = s.sched.SlotToTime(end)
	req.DurationLabel = s.sched.DurationLabel(start, end)
}

func (s *BookingService) historyEntry(requestID string, action models.HistoryAction, actor Actor, notes string, meta models.HistoryMeta) *models.HistoryEntry {
	return &models.HistoryEntry{
		EntryID:   uuid.New().String(),
		RequestID: requestID,
		Action:    action,
		Actor:     actor.snapshot(),
		Notes:     notes,
		Meta:      datatypes.NewJSONType(meta),
		Timestamp: s.now().UTC(),
	}
}

// checkTransition allows admin actions only on requests awaiting a decision
func checkTransition(req *models.BookingRequest, action models.HistoryAction) error {
	if req.Status.AwaitingDecision() {
		return nil
	}
	return newError(ErrInvalidTransition, "Request is already "+string(req.Status)+" and cannot be "+string(action))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
