package repository

import (
	"errors"

	"club-room-booking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBookingNotFound = errors.New("booking request not found")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithDB returns a repository bound to db, usually a transaction
func (r *BookingRepository) WithDB(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	Statuses    []models.BookingStatus
	RoomID      string
	Date        string
	RequestedBy string
	Limit       int
}

// CreateBooking inserts a request without its history
func (r *BookingRepository) CreateBooking(req *models.BookingRequest) error {
	return r.db.Omit(clause.Associations).Create(req).Error
}

// UpdateBooking writes every column of the request except its history
func (r *BookingRepository) UpdateBooking(req *models.BookingRequest) error {
	return r.db.Omit(clause.Associations).Save(req).Error
}

// FindBookingForUpdate loads a request and locks its row
func (r *BookingRepository) FindBookingForUpdate(id string) (*models.BookingRequest, error) {
	var req models.BookingRequest
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetBookingByID loads a request with its history in order
func (r *BookingRepository) GetBookingByID(id string) (*models.BookingRequest, error) {
	var req models.BookingRequest
	err := r.db.Where("id = ?", id).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("booking_history.id ASC")
		}).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &req, nil
}

// AppendHistory adds entries to a request's history. Entries are never
// updated or deleted.
func (r *BookingRepository) AppendHistory(entries ...*models.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(entries).Error
}

// ListBookings retrieves requests ordered by date then start slot
func (r *BookingRepository) ListBookings(filter BookingFilter) ([]models.BookingRequest, error) {
	var reqs []models.BookingRequest
	q := r.db.Model(&models.BookingRequest{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.RoomID != "" {
		q = q.Where("room_id = ?", filter.RoomID)
	}
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.RequestedBy != "" {
		q = q.Where("requested_by_uid = ?", filter.RequestedBy)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("date ASC, start_slot ASC, created_at ASC").Find(&reqs).Error
	return reqs, err
}

// ListApprovedBetween returns approved requests with from <= date < to,
// optionally limited to one room
func (r *BookingRepository) ListApprovedBetween(from, to, roomID string) ([]models.BookingRequest, error) {
	var reqs []models.BookingRequest
	q := r.db.Where("status = ? AND date >= ? AND date < ?", models.StatusApproved, from, to)
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	err := q.Order("date ASC, start_slot ASC").Find(&reqs).Error
	return reqs, err
}

// ListHoldingSlots returns the requests of a room and day that occupy slots
func (r *BookingRepository) ListHoldingSlots(roomID, date string) ([]models.BookingRequest, error) {
	var reqs []models.BookingRequest
	err := r.db.Where("room_id = ? AND date = ? AND status IN ?", roomID, date,
		[]models.BookingStatus{models.StatusPending, models.StatusModified, models.StatusApproved}).
		Order("start_slot ASC").
		Find(&reqs).Error
	return reqs, err
}
