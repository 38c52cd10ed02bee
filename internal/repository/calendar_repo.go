package repository

import (
	"errors"

	"club-room-booking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepo(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// WithDB returns a repository bound to db, usually a transaction
func (r *CalendarRepository) WithDB(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Find returns the calendar of a room and date. An absent calendar reads as
// empty and is not created.
func (r *CalendarRepository) Find(roomID, date string) (*models.RoomCalendar, error) {
	var cal models.RoomCalendar
	err := r.db.Where("room_id = ? AND date = ?", roomID, date).First(&cal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EmptyCalendar(roomID, date), nil
		}
		return nil, err
	}
	return &cal, nil
}

// Lock ensures the calendar row exists and takes a row lock on it for the rest
// of the transaction. Must be called on a repository bound to a transaction.
func (r *CalendarRepository) Lock(roomID, date string) (*models.RoomCalendar, error) {
	seed := models.EmptyCalendar(roomID, date)
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return nil, err
	}

	var cal models.RoomCalendar
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ? AND date = ?", roomID, date).
		First(&cal).Error
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

// Save writes the calendar's slots and pending set
func (r *CalendarRepository) Save(cal *models.RoomCalendar) error {
	return r.db.Model(cal).
		Select("slots", "pending_request_ids", "updated_at").
		Updates(cal).Error
}

// ListFrom returns every stored calendar on or after date, by room then date
func (r *CalendarRepository) ListFrom(date string) ([]models.RoomCalendar, error) {
	var cals []models.RoomCalendar
	err := r.db.Where("date >= ?", date).
		Order("room_id ASC, date ASC").
		Find(&cals).Error
	return cals, err
}
