package service

import (
	"context"
	"errors"
	"log"

	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"

	"gorm.io/gorm"
)

type RoomService struct {
	db           *gorm.DB
	sched        *schedule.Schedule
	roomRepo     *repository.RoomRepository
	calendarRepo *repository.CalendarRepository
}

func NewRoomService(
	db *gorm.DB,
	sched *schedule.Schedule,
	roomRepo *repository.RoomRepository,
	calendarRepo *repository.CalendarRepository,
) *RoomService {
	return &RoomService{
		db:           db,
		sched:        sched,
		roomRepo:     roomRepo,
		calendarRepo: calendarRepo,
	}
}

// RoomSearch narrows SearchRooms. When Date is set the window
// [StartSlot, EndSlot) must be free in each returned room.
type RoomSearch struct {
	Building    string
	MinCapacity int
	Equipment   []string
	Date        string
	StartSlot   int
	EndSlot     int
}

// SearchRooms lists active rooms matching the search
func (s *RoomService) SearchRooms(ctx context.Context, search RoomSearch) ([]models.Room, error) {
	db := s.db.WithContext(ctx)
	rooms, err := s.roomRepo.WithDB(db).ListRooms(repository.RoomFilter{
		Building:    search.Building,
		MinCapacity: search.MinCapacity,
	})
	if err != nil {
		return nil, err
	}

	checkWindow := search.Date != ""
	if checkWindow {
		if err := s.sched.ValidateSlotWindow(search.Date, search.StartSlot, search.EndSlot); err != nil {
			return nil, err
		}
	}

	out := make([]models.Room, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if !room.HasAllEquipment(search.Equipment) {
			continue
		}
		if checkWindow {
			cal, err := s.calendarRepo.WithDB(db).Find(room.ID, search.Date)
			if err != nil {
				return nil, err
			}
			if cal.SlotMap().Conflicts(search.StartSlot, search.EndSlot, "") {
				continue
			}
		}
		out = append(out, *room)
	}
	return out, nil
}

// GetRoom returns an active room
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	room, err := s.roomRepo.WithDB(s.db.WithContext(ctx)).GetRoomByID(roomID)
	if errors.Is(err, repository.ErrRoomNotFound) {
		return nil, newError(ErrRoomNotFound, "Room not found")
	}
	return room, err
}

// DeactivateRoom hides a room from search and new requests. Requests already
// made for it keep their slots.
func (s *RoomService) DeactivateRoom(ctx context.Context, roomID string) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.roomRepo.WithDB(s.db.WithContext(ctx)).DeactivateRoom(room.ID); err != nil {
		return err
	}
	log.Printf("Room %s deactivated", room.ID)
	return nil
}

// RoomDay is a room's calendar for one date with the slot labels needed to
// render it
type RoomDay struct {
	Room     *models.Room          `json:"room"`
	Calendar *models.RoomCalendar  `json:"calendar"`
	Options  []schedule.SlotOption `json:"slot_options"`
}

// GetCalendar returns the calendar of a room on date, empty when nothing is
// booked yet
func (s *RoomService) GetCalendar(ctx context.Context, roomID, date string) (*RoomDay, error) {
	if _, err := s.sched.ParseDate(date); err != nil {
		return nil, newError(ErrInvalidWindow, "Please select a valid date (YYYY-MM-DD)")
	}
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendarRepo.WithDB(s.db.WithContext(ctx)).Find(room.ID, date)
	if err != nil {
		return nil, err
	}
	return &RoomDay{Room: room, Calendar: cal, Options: s.sched.SlotOptions()}, nil
}

// ScheduleInfo describes the operating schedule to clients
type ScheduleInfo struct {
	OperatingDays       []string              `json:"operating_days"`
	Timezone            string                `json:"timezone"`
	OpenTime            string                `json:"open_time"`
	CloseTime           string                `json:"close_time"`
	SlotIntervalMinutes int                   `json:"slot_interval_minutes"`
	MaxSlotsPerBooking  int                   `json:"max_slots_per_booking"`
	TotalSlots          int                   `json:"total_slots"`
	SlotOptions         []schedule.SlotOption `json:"slot_options"`
}

func (s *RoomService) Schedule() ScheduleInfo {
	days := s.sched.OperatingDays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return ScheduleInfo{
		OperatingDays:       names,
		Timezone:            s.sched.Timezone(),
		OpenTime:            s.sched.OpenTime(),
		CloseTime:           s.sched.CloseTime(),
		SlotIntervalMinutes: s.sched.SlotIntervalMinutes(),
		MaxSlotsPerBooking:  s.sched.MaxSlotsPerBooking(),
		TotalSlots:          s.sched.TotalSlots(),
		SlotOptions:         s.sched.SlotOptions(),
	}
}

// DefaultRooms is the catalogue seeded into a fresh deployment
func DefaultRooms() []models.Room {
	return []models.Room{
		{ID: "SB201", DisplayName: "SB201", Building: "Science", Capacity: 30, Equipment: []string{"projector", "whiteboard"}, Active: true},
		{ID: "SB105", DisplayName: "SB105", Building: "Science", Capacity: 12, Equipment: []string{"whiteboard"}, Active: true},
		{ID: "LH101", DisplayName: "LH101", Building: "Lazaridis Hall", Capacity: 80, Equipment: []string{"projector", "speakers", "hdmi"}, Active: true},
		{ID: "P101", DisplayName: "P101", Building: "Peters", Capacity: 20, Equipment: []string{"projector"}, Active: true},
		{ID: "LIBB1", DisplayName: "Library Basement 1", Building: "Library", Floor: "B1", Capacity: 10, Equipment: []string{"whiteboard"}, Active: true},
		{ID: "LIB201", DisplayName: "Library Study 201", Building: "Library", Floor: "2", Capacity: 6, Equipment: []string{"hdmi"}, Active: true},
	}
}

// SeedRooms upserts the default catalogue
func (s *RoomService) SeedRooms(ctx context.Context) (int, error) {
	repo := s.roomRepo.WithDB(s.db.WithContext(ctx))
	rooms := DefaultRooms()
	for i := range rooms {
		if err := repo.UpsertRoom(&rooms[i]); err != nil {
			return i, err
		}
	}
	return len(rooms), nil
}
