package handler

import (
	"net/http"
	"strconv"
	"strings"

	"club-room-booking/internal/schedule"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *service.RoomService
	sched       *schedule.Schedule
}

func NewRoomHandler(roomService *service.RoomService, sched *schedule.Schedule) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		sched:       sched,
	}
}

// ListRooms searches active rooms. Query: building, min_capacity,
// equipment (comma list), and date with start/end (slot index or HH:MM)
// to keep only rooms free in that window.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	search := service.RoomSearch{
		Building: strings.TrimSpace(c.Query("building")),
		Date:     strings.TrimSpace(c.Query("date")),
	}

	if v := c.Query("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid min_capacity")
			return
		}
		search.MinCapacity = n
	}
	for _, e := range strings.Split(c.Query("equipment"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			search.Equipment = append(search.Equipment, e)
		}
	}
	if search.Date != "" {
		var err error
		if search.StartSlot, err = h.querySlot(c, "start"); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start: "+err.Error())
			return
		}
		if search.EndSlot, err = h.querySlot(c, "end"); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end: "+err.Error())
			return
		}
	}

	rooms, err := h.roomService.SearchRooms(c.Request.Context(), search)
	if err != nil {
		respondError(c, err, "Failed to fetch rooms")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// GetRoom retrieves a specific room by ID
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomService.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch room")
		return
	}

	utils.SuccessResponse(c, room)
}

// GetCalendar returns a room's slot occupancy for one date
func (h *RoomHandler) GetCalendar(c *gin.Context) {
	day, err := h.roomService.GetCalendar(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err, "Failed to fetch calendar")
		return
	}

	utils.SuccessResponse(c, day)
}

// Deactivate hides a room from search and new bookings (admin only)
func (h *RoomHandler) Deactivate(c *gin.Context) {
	if err := h.roomService.DeactivateRoom(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to deactivate room")
		return
	}

	utils.MessageResponse(c, "Room deactivated")
}

// GetSchedule exposes the operating schedule and slot labels
func (h *RoomHandler) GetSchedule(c *gin.Context) {
	utils.SuccessResponse(c, h.roomService.Schedule())
}

func (h *RoomHandler) querySlot(c *gin.Context, name string) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, errMissingSlot
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	return h.sched.TimeToSlot(v)
}
