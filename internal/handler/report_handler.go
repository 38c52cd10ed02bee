package handler

import (
	"net/http"
	"strconv"
	"time"

	"club-room-booking/internal/schedule"
	"club-room-booking/internal/service"
	"club-room-booking/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *service.ReportService
	sched         *schedule.Schedule
}

func NewReportHandler(reportService *service.ReportService, sched *schedule.Schedule) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		sched:         sched,
	}
}

// Usage returns the monthly usage report. year and month default to the
// current month in the operating timezone; room_id=all covers every room.
func (h *ReportHandler) Usage(c *gin.Context) {
	now := time.Now().In(h.sched.Location())
	year, month := now.Year(), int(now.Month())

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 9999 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid year")
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid month")
			return
		}
		month = n
	}

	roomID := c.Query("room_id")
	if roomID == "all" {
		roomID = ""
	}

	report, err := h.reportService.MonthlyUsageReport(c.Request.Context(), year, month, roomID)
	if err != nil {
		respondError(c, err, "Failed to build usage report")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"year":   year,
		"month":  month,
		"report": report,
	})
}
