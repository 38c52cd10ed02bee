package handler

import (
	"net/http"
	"strconv"
	"strings"

	"club-room-booking/internal/models"
	"club-room-booking/internal/repository"
	"club-room-booking/internal/schedule"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService *service.BookingService
	sched          *schedule.Schedule
}

func NewBookingHandler(bookingService *service.BookingService, sched *schedule.Schedule) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		sched:          sched,
	}
}

// CreateBookingRequest accepts either slot indices or HH:MM times
type CreateBookingRequest struct {
	RoomID    string `json:"room_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartSlot *int   `json:"start_slot"`
	EndSlot   *int   `json:"end_slot"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes" binding:"max=1000"`
}

type ApproveBookingRequest struct {
	AdminNotes string `json:"admin_notes" binding:"max=1000"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ModifyBookingRequest struct {
	Date      *string `json:"date"`
	StartSlot *int    `json:"start_slot"`
	EndSlot   *int    `json:"end_slot"`
	Reason    string  `json:"reason" binding:"max=1000"`
}

// Create submits a booking request for the authenticated student
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := h.resolveSlot(req.StartSlot, req.StartTime)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid start: "+err.Error())
		return
	}
	end, err := h.resolveSlot(req.EndSlot, req.EndTime)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid end: "+err.Error())
		return
	}

	id, err := h.bookingService.CreateBookingRequest(c.Request.Context(), service.CreateBookingInput{
		RoomID:    req.RoomID,
		Date:      req.Date,
		StartSlot: start,
		EndSlot:   end,
		Notes:     strings.TrimSpace(req.Notes),
		User:      actorFrom(c),
	})
	if err != nil {
		respondError(c, err, "Failed to create booking request")
		return
	}

	utils.CreatedResponse(c, gin.H{"id": id})
}

// Mine lists the authenticated student's requests
func (h *BookingHandler) Mine(c *gin.Context) {
	reqs, err := h.bookingService.ListBookingRequests(c.Request.Context(), repository.BookingFilter{
		RequestedBy: actorFrom(c).UID,
	})
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"bookings": reqs,
		"count":    len(reqs),
	})
}

// Get returns one request with its history to its owner or an admin
func (h *BookingHandler) Get(c *gin.Context) {
	req, err := h.bookingService.GetBookingRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch booking")
		return
	}

	actor := actorFrom(c)
	if actor.Role != models.RoleAdmin && req.RequestedBy.UID != actor.UID {
		utils.ErrorResponse(c, http.StatusNotFound, "Request not found")
		return
	}

	utils.SuccessResponse(c, req)
}

// List returns requests for the admin queue. status takes a comma separated list.
func (h *BookingHandler) List(c *gin.Context) {
	filter := repository.BookingFilter{
		RoomID: c.Query("room_id"),
		Date:   c.Query("date"),
	}
	for _, s := range strings.Split(c.Query("status"), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		status := models.BookingStatus(s)
		if !status.Valid() {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid status "+s)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = n
	}

	reqs, err := h.bookingService.ListBookingRequests(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch bookings")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"bookings": reqs,
		"count":    len(reqs),
	})
}

// Approve confirms a request (admin only)
func (h *BookingHandler) Approve(c *gin.Context) {
	var req ApproveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.bookingService.ApproveBookingRequest(c.Request.Context(), c.Param("id"), actorFrom(c), strings.TrimSpace(req.AdminNotes)); err != nil {
		respondError(c, err, "Failed to approve booking request")
		return
	}

	utils.MessageResponse(c, "Booking request approved")
}

// Reject declines a request (admin only). A reason is required.
func (h *BookingHandler) Reject(c *gin.Context) {
	var req RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "A rejection reason is required")
		return
	}

	if err := h.bookingService.RejectBookingRequest(c.Request.Context(), c.Param("id"), actorFrom(c), strings.TrimSpace(req.Reason)); err != nil {
		respondError(c, err, "Failed to reject booking request")
		return
	}

	utils.MessageResponse(c, "Booking request rejected")
}

// Modify reschedules a request (admin only)
func (h *BookingHandler) Modify(c *gin.Context) {
	var req ModifyBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.bookingService.ModifyBookingRequest(c.Request.Context(), c.Param("id"), actorFrom(c), service.ModifyBookingInput{
		Date:      req.Date,
		StartSlot: req.StartSlot,
		EndSlot:   req.EndSlot,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		respondError(c, err, "Failed to modify booking request")
		return
	}

	utils.MessageResponse(c, "Booking request modified")
}

func (h *BookingHandler) resolveSlot(slot *int, clock string) (int, error) {
	if slot != nil {
		return *slot, nil
	}
	if clock == "" {
		return 0, errMissingSlot
	}
	return h.sched.TimeToSlot(clock)
}
