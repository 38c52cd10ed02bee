package handler

import (
	"errors"
	"log"
	"net/http"

	"club-room-booking/internal/middleware"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Business-rule
// messages are passed through, anything else is logged and hidden.
func respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidWindow):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSlotConflict), errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrRoomNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Printf("Error: %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.ErrorResponse(c, status, fallback)
		return
	}
	utils.ErrorResponse(c, status, err.Error())
}

// actorFrom builds the caller's identity from the claims AuthMiddleware set
func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UID:         c.GetString(middleware.ContextUID),
		Email:       c.GetString(middleware.ContextEmail),
		DisplayName: c.GetString(middleware.ContextDisplayName),
		Role:        c.GetString(middleware.ContextRole),
	}
}

var errMissingSlot = errors.New("a slot or HH:MM time is required")
