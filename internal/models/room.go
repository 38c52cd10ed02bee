package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Room represents a bookable club room. Rooms are maintained by the seeding
// process; the booking core only reads them.
type Room struct {
	ID          string                      `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string                      `gorm:"size:100;not null" json:"display_name"`
	Building    string                      `gorm:"size:100;index" json:"building"`
	Floor       string                      `gorm:"size:20" json:"floor,omitempty"`
	Capacity    int                         `gorm:"not null;default:0" json:"capacity"`
	Equipment   datatypes.JSONSlice[string] `json:"equipment"`
	Active      bool                        `gorm:"not null;index" json:"active"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for Room model
func (Room) TableName() string {
	return "rooms"
}

// HasAllEquipment reports whether the room offers every wanted item,
// comparing names case-insensitively. An empty wish list always matches.
func (r *Room) HasAllEquipment(wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	have := make(map[string]bool, len(r.Equipment))
	for _, e := range r.Equipment {
		have[strings.ToLower(strings.TrimSpace(e))] = true
	}
	for _, w := range wanted {
		if !have[strings.ToLower(strings.TrimSpace(w))] {
			return false
		}
	}
	return true
}

// Snapshot captures the room as it is now, for storing on a booking request.
func (r *Room) Snapshot() RoomSnapshot {
	equipment := make([]string, len(r.Equipment))
	copy(equipment, r.Equipment)
	return RoomSnapshot{
		DisplayName: r.DisplayName,
		Building:    r.Building,
		Floor:       r.Floor,
		Capacity:    r.Capacity,
		Equipment:   equipment,
	}
}

// RoomSnapshot is the room as it was when a request was created. It is never
// refreshed from later room edits.
type RoomSnapshot struct {
	DisplayName string   `json:"display_name"`
	Building    string   `json:"building"`
	Floor       string   `json:"floor,omitempty"`
	Capacity    int      `json:"capacity"`
	Equipment   []string `json:"equipment"`
}
