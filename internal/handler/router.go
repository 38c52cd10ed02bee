package handler

import (
	"club-room-booking/internal/middleware"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted by RegisterRoutes
type Routes struct {
	Auth          *AuthHandler
	Room          *RoomHandler
	Booking       *BookingHandler
	Report        *ReportHandler
	BookingLimits *middleware.RateLimiter
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, h Routes) {
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "club-room-booking",
		})
	})
	r.GET("/schedule", h.Room.GetSchedule)

	// Auth routes (public)
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.AuthMiddleware(), h.Auth.Me)
	}

	rooms := r.Group("/rooms")
	rooms.Use(middleware.AuthMiddleware())
	{
		rooms.GET("", h.Room.ListRooms)
		rooms.GET("/:id", h.Room.GetRoom)
		rooms.GET("/:id/calendar/:date", h.Room.GetCalendar)
	}

	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware())
	{
		if h.BookingLimits != nil {
			bookings.POST("", h.BookingLimits.Limit(), h.Booking.Create)
		} else {
			bookings.POST("", h.Booking.Create)
		}
		bookings.GET("/mine", h.Booking.Mine)
		bookings.GET("/:id", h.Booking.Get)
	}

	// Admin-only routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
	{
		admin.GET("/bookings", h.Booking.List)
		admin.POST("/bookings/:id/approve", h.Booking.Approve)
		admin.POST("/bookings/:id/reject", h.Booking.Reject)
		admin.POST("/bookings/:id/modify", h.Booking.Modify)
		admin.GET("/reports/usage", h.Report.Usage)
		admin.DELETE("/rooms/:id", h.Room.Deactivate)
		admin.GET("/audit-logs", h.Auth.AuditLogs)
	}
}
