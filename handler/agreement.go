package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/ansher/agreementtracker/model"
	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

type AgreementHandler struct {
	tracker        *service.Tracker
	maxUploadBytes int64
}

func NewAgreementHandler(tracker *service.Tracker, maxUploadMB int) *AgreementHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &AgreementHandler{
		tracker:        tracker,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// Upload extracts a new agreement from a multipart PDF upload
func (h *AgreementHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	a, err := h.tracker.Upload(c.Request.Context(), service.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Company:     c.PostForm("company"),
	})
	if err != nil {
		if a != nil {
			// Returned so the client can resubmit it through manual entry
			a.PDFData = ""
			respondErrorWith(c, err, gin.H{"agreement": a})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, service.NewAgreementView(a, h.tracker.Now()))
}

// List returns the agreements matching the company selector
func (h *AgreementHandler) List(c *gin.Context) {
	views, err := h.tracker.List(c.Query("company"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agreements": views})
}

// Dashboard returns the summary, type groups and upcoming expirations
func (h *AgreementHandler) Dashboard(c *gin.Context) {
	d, err := h.tracker.Dashboard(c.Query("company"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Get returns a single agreement without its PDF
func (h *AgreementHandler) Get(c *gin.Context) {
	a, err := h.tracker.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewAgreementView(a, h.tracker.Now()))
}

// PDF downloads the stored source document
func (h *AgreementHandler) PDF(c *gin.Context) {
	fileName, data, err := h.tracker.PDF(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Create stores a manually entered agreement
func (h *AgreementHandler) Create(c *gin.Context) {
	var in model.Agreement
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %w", service.ErrValidation, err))
		return
	}

	a, err := h.tracker.CreateManual(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewAgreementView(a, h.tracker.Now()))
}

// Update edits an existing agreement
func (h *AgreementHandler) Update(c *gin.Context) {
	var in model.Agreement
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %w", service.ErrValidation, err))
		return
	}

	a, err := h.tracker.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewAgreementView(a, h.tracker.Now()))
}

// Delete removes an agreement. The caller must pass confirm=true.
func (h *AgreementHandler) Delete(c *gin.Context) {
	if !strings.EqualFold(c.Query("confirm"), "true") {
		respondError(c, fmt.Errorf("%w: deletion requires confirm=true", service.ErrValidation))
		return
	}

	id := c.Param("id")
	if err := h.tracker.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agreement deleted", "id": id})
}
