package handler

import (
	"fmt"
	"net/http"

	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	tracker *service.Tracker
}

func NewSettingsHandler(tracker *service.Tracker) *SettingsHandler {
	return &SettingsHandler{tracker: tracker}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Settings())
}

// Update replaces the reminder settings. Omitted thresholds keep their
// current values.
func (h *SettingsHandler) Update(c *gin.Context) {
	s := h.tracker.Settings()
	var in struct {
		Email         *string `json:"email"`
		ReminderDays1 *int    `json:"reminderDays1"`
		ReminderDays2 *int    `json:"reminderDays2"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %w", service.ErrValidation, err))
		return
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.ReminderDays1 != nil {
		s.ReminderDays1 = *in.ReminderDays1
	}
	if in.ReminderDays2 != nil {
		s.ReminderDays2 = *in.ReminderDays2
	}

	saved, err := h.tracker.SaveSettings(c.Request.Context(), s)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
