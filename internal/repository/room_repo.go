package repository

import (
	"errors"

	"club-room-booking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithDB returns a repository bound to db, usually a transaction
func (r *RoomRepository) WithDB(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// RoomFilter narrows ListRooms. Zero values match everything.
type RoomFilter struct {
	Building    string
	MinCapacity int
}

// ListRooms retrieves active rooms ordered by display name
func (r *RoomRepository) ListRooms(filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room
	q := r.db.Where("active = ?", true)
	if filter.Building != "" {
		q = q.Where("LOWER(building) = LOWER(?)", filter.Building)
	}
	if filter.MinCapacity > 0 {
		q = q.Where("capacity >= ?", filter.MinCapacity)
	}
	err := q.Order("display_name ASC, id ASC").Find(&rooms).Error
	return rooms, err
}

// GetRoomByID retrieves an active room by its id
func (r *RoomRepository) GetRoomByID(id string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("id = ? AND active = ?", id, true).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpsertRoom creates the room or overwrites its descriptive fields
func (r *RoomRepository) UpsertRoom(room *models.Room) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "building", "floor", "capacity", "equipment", "active", "updated_at"}),
	}).Create(room).Error
}

// DeactivateRoom hides a room from listings and new bookings
func (r *RoomRepository) DeactivateRoom(id string) error {
	return r.db.Model(&models.Room{}).
		Where("id = ?", id).
		Update("active", false).Error
}
