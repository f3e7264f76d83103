package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medinfo/backend/internal/middleware"
	"github.com/medinfo/backend/internal/service"
)

// ScheduleHandler serves dose reminders.
type ScheduleHandler struct {
	reminders *service.ReminderService
}

func NewScheduleHandler(reminders *service.ReminderService) *ScheduleHandler {
	return &ScheduleHandler{reminders: reminders}
}

// Calendar handles GET /calendar: the user's scheduled doses.
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	doses, err := h.reminders.ListSchedule(middleware.UserEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": doses})
}

// AddDose handles POST /schedule/add.
func (h *ScheduleHandler) AddDose(c *gin.Context) {
	var req struct {
		Medication   string `json:"medication" form:"medication"`
		ScheduleTime string `json:"schedule_time" form:"schedule_time"`
	}
	if err := c.ShouldBind(&req); err != nil || service.NormalizeName(req.Medication) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medication name is required"})
		return
	}

	// HTML datetime-local inputs omit the zone; fall back to RFC 3339 for
	// API clients.
	at, err := time.Parse("2006-01-02T15:04", req.ScheduleTime)
	if err != nil {
		at, err = time.Parse(time.RFC3339, req.ScheduleTime)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule time"})
		return
	}

	dose, err := h.reminders.ScheduleDose(middleware.UserEmail(c), req.Medication, at)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule dose"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dose": dose})
}
