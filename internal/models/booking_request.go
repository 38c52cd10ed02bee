package models

import (
	"time"

	"gorm.io/datatypes"
)

// BookingStatus is the lifecycle state of a booking request
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusModified  BookingStatus = "modified"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusModified, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// AwaitingDecision reports whether an administrator can still act on the request.
func (s BookingStatus) AwaitingDecision() bool {
	return s == StatusPending || s == StatusModified
}

// HoldsSlots reports whether a request in this state occupies calendar slots.
func (s BookingStatus) HoldsSlots() bool {
	return s == StatusPending || s == StatusModified || s == StatusApproved
}

// UserSnapshot identifies the requester or an actor at the time of an action
type UserSnapshot struct {
	UID         string `gorm:"size:64;index" json:"uid"`
	Email       string `gorm:"size:255" json:"email"`
	DisplayName string `gorm:"size:100" json:"display_name"`
	Role        string `gorm:"size:20" json:"role,omitempty"`
}

// BookingRequest is a student's request to occupy [StartSlot, EndSlot) of a
// room on a date. RoomName, RoomSnapshot and RequestedBy are captured at
// creation and never refreshed.
type BookingRequest struct {
	ID            string                           `gorm:"primaryKey;size:36" json:"id"`
	RoomID        string                           `gorm:"size:64;not null;index:idx_booking_room_date" json:"room_id"`
	RoomName      string                           `gorm:"size:100" json:"room_name"`
	RoomSnapshot  datatypes.JSONType[RoomSnapshot] `json:"room_snapshot"`
	RequestedBy   UserSnapshot                     `gorm:"embedded;embeddedPrefix:requested_by_" json:"requested_by"`
	Date          string                           `gorm:"size:10;not null;index:idx_booking_room_date;index:idx_booking_date_slot" json:"date"`
	StartSlot     int                              `gorm:"not null;index:idx_booking_date_slot" json:"start_slot"`
	EndSlot       int                              `gorm:"not null" json:"end_slot"`
	StartTime     string                           `gorm:"size:5" json:"start_time"`
	EndTime       string                           `gorm:"size:5" json:"end_time"`
	DurationLabel string                           `gorm:"size:20" json:"duration_label"`
	Timezone      string                           `gorm:"size:64" json:"timezone"`
	Status        BookingStatus                    `gorm:"size:20;not null;index" json:"status"`
	Notes         string                           `gorm:"type:text" json:"notes"`
	AdminNotes    string                           `gorm:"type:text" json:"admin_notes"`
	Decision      string                           `gorm:"size:255" json:"decision"`
	CreatedAt     time.Time                        `json:"created_at"`
	UpdatedAt     time.Time                        `json:"updated_at"`

	History []HistoryEntry `gorm:"foreignKey:RequestID;references:ID" json:"history,omitempty"`
}

// TableName specifies the table name for BookingRequest model
func (BookingRequest) TableName() string {
	return "booking_requests"
}

// Window returns the request's current date and slot window
func (r *BookingRequest) Window() WindowRef {
	return WindowRef{Date: r.Date, StartSlot: r.StartSlot, EndSlot: r.EndSlot}
}

// WindowRef is a date and slot window, as recorded in history metadata
type WindowRef struct {
	Date      string `json:"date"`
	StartSlot int    `json:"start_slot"`
	EndSlot   int    `json:"end_slot"`
}

// HistoryAction names what happened to a request
type HistoryAction string

const (
	ActionCreated  HistoryAction = "created"
	ActionApproved HistoryAction = "approved"
	ActionRejected HistoryAction = "rejected"
	ActionModified HistoryAction = "modified"
)

// HistoryMeta carries the window change of a modification
type HistoryMeta struct {
	From *WindowRef `json:"from,omitempty"`
	To   *WindowRef `json:"to,omitempty"`
}

// HistoryEntry is one append-only audit record of a booking request. Entries
// are ordered by their auto-increment ID.
type HistoryEntry struct {
	ID        uint                            `gorm:"primaryKey" json:"-"`
	EntryID   string                          `gorm:"size:36;uniqueIndex;not null" json:"id"`
	RequestID string                          `gorm:"size:36;not null;index" json:"request_id"`
	Action    HistoryAction                   `gorm:"size:20;not null" json:"action"`
	Actor     UserSnapshot                    `gorm:"embedded;embeddedPrefix:actor_" json:"actor"`
	Notes     string                          `gorm:"type:text" json:"notes,omitempty"`
	Meta      datatypes.JSONType[HistoryMeta] `json:"meta"`
	Timestamp time.Time                       `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for HistoryEntry model
func (HistoryEntry) TableName() string {
	return "booking_history"
}
