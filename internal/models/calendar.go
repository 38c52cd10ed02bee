package models

import (
	"sort"
	"time"

	"club-room-booking/internal/schedule"

	"gorm.io/datatypes"
)

// SlotStatus is the occupancy state of a single calendar slot
type SlotStatus string

const (
	SlotPending  SlotStatus = "pending"
	SlotModified SlotStatus = "modified"
	SlotApproved SlotStatus = "approved"
)

// Blocks reports whether a slot in this state keeps other requests out.
func (s SlotStatus) Blocks() bool {
	switch s {
	case SlotPending, SlotModified, SlotApproved:
		return true
	}
	return false
}

// SlotEntry is the occupant of one slot
type SlotEntry struct {
	Status    SlotStatus `json:"status"`
	RequestID string     `json:"request_id"`
}

// SlotMap maps a slot index to its occupant. Absent slots are available.
type SlotMap map[int]SlotEntry

// Conflicts reports whether any slot of [start, end) is held by a request
// other than ignoreRequestID.
func (m SlotMap) Conflicts(start, end int, ignoreRequestID string) bool {
	for _, slot := range schedule.BuildSlotRange(start, end) {
		entry, ok := m[slot]
		if !ok {
			continue
		}
		if ignoreRequestID != "" && entry.RequestID == ignoreRequestID {
			continue
		}
		if entry.Status.Blocks() {
			return true
		}
	}
	return false
}

// Apply returns a copy with every slot of [start, end) assigned to requestID.
// Callers must have checked Conflicts in the same transaction.
func (m SlotMap) Apply(start, end int, requestID string, status SlotStatus) SlotMap {
	next := m.clone()
	for _, slot := range schedule.BuildSlotRange(start, end) {
		next[slot] = SlotEntry{Status: status, RequestID: requestID}
	}
	return next
}

// Remove returns a copy without the slots of [start, end) that requestID
// owns. Slots held by other requests are left alone.
func (m SlotMap) Remove(start, end int, requestID string) SlotMap {
	next := m.clone()
	for _, slot := range schedule.BuildSlotRange(start, end) {
		if entry, ok := next[slot]; ok && entry.RequestID == requestID {
			delete(next, slot)
		}
	}
	return next
}

// OwnedBy lists the slots held by requestID in ascending order.
func (m SlotMap) OwnedBy(requestID string) []int {
	var out []int
	for slot, entry := range m {
		if entry.RequestID == requestID {
			out = append(out, slot)
		}
	}
	sort.Ints(out)
	return out
}

func (m SlotMap) clone() SlotMap {
	next := make(SlotMap, len(m))
	for k, v := range m {
		next[k] = v
	}
	return next
}

// RoomCalendar is the occupancy index of one room on one date. It is derived
// from the non-terminal booking requests of that room and day and is only
// written together with them.
type RoomCalendar struct {
	ID                uint                        `gorm:"primaryKey" json:"-"`
	RoomID            string                      `gorm:"size:64;not null;uniqueIndex:idx_room_calendar_day" json:"room_id"`
	Date              string                      `gorm:"size:10;not null;uniqueIndex:idx_room_calendar_day;index" json:"date"`
	Slots             datatypes.JSONType[SlotMap] `json:"slots"`
	PendingRequestIDs datatypes.JSONSlice[string] `json:"pending_request_ids"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for RoomCalendar model
func (RoomCalendar) TableName() string {
	return "room_calendars"
}

// EmptyCalendar is what an absent calendar reads as.
func EmptyCalendar(roomID, date string) *RoomCalendar {
	return &RoomCalendar{
		RoomID:            roomID,
		Date:              date,
		Slots:             datatypes.NewJSONType(SlotMap{}),
		PendingRequestIDs: datatypes.JSONSlice[string]{},
	}
}

// SlotMap returns the calendar's slots, never nil.
func (c *RoomCalendar) SlotMap() SlotMap {
	if m := c.Slots.Data(); m != nil {
		return m
	}
	return SlotMap{}
}

func (c *RoomCalendar) SetSlots(m SlotMap) {
	c.Slots = datatypes.NewJSONType(m)
}

// AddPending records requestID as awaiting a decision.
func (c *RoomCalendar) AddPending(requestID string) {
	for _, id := range c.PendingRequestIDs {
		if id == requestID {
			return
		}
	}
	ids := append(datatypes.JSONSlice[string]{}, c.PendingRequestIDs...)
	ids = append(ids, requestID)
	sort.Strings(ids)
	c.PendingRequestIDs = ids
}

// RemovePending drops requestID from the pending set.
func (c *RoomCalendar) RemovePending(requestID string) {
	ids := make(datatypes.JSONSlice[string], 0, len(c.PendingRequestIDs))
	for _, id := range c.PendingRequestIDs {
		if id != requestID {
			ids = append(ids, id)
		}
	}
	c.PendingRequestIDs = ids
}

func (c *RoomCalendar) HasPending(requestID string) bool {
	for _, id := range c.PendingRequestIDs {
		if id == requestID {
			return true
		}
	}
	return false
}
