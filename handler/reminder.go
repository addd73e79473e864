package handler

import (
	"bytes"
	"net/http"

	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

type ReminderHandler struct {
	tracker *service.Tracker
	from    string
}

// NewReminderHandler builds the reminder endpoints. from is the sender of
// rendered .eml drafts; empty uses the recipient.
func NewReminderHandler(tracker *service.Tracker, from string) *ReminderHandler {
	return &ReminderHandler{tracker: tracker, from: from}
}

// Sweep runs the reminder sweep and returns the drafts for the client to open
func (h *ReminderHandler) Sweep(c *gin.Context) {
	var outbox service.Outbox
	result, err := h.tracker.SendReminders(c.Request.Context(), &outbox)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "No reminders to send at this time."
	if result.Sent > 0 {
		message = "Reminder drafts are ready. Send them from your email client."
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"result":  result,
	})
}

// Draft returns an ad hoc reminder for one agreement, as JSON or as an .eml
// file with format=eml
func (h *ReminderHandler) Draft(c *gin.Context) {
	draft, err := h.tracker.ReminderDraft(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") != "eml" {
		c.JSON(http.StatusOK, draft)
		return
	}

	var buf bytes.Buffer
	if err := draft.WriteMessage(&buf, h.from, h.tracker.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="reminder-`+draft.AgreementID+`.eml"`)
	c.Data(http.StatusOK, "message/rfc822", buf.Bytes())
}
