package handler

import (
	"errors"
	"net/http"

	"github.com/ansher/agreementtracker/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service failure kind to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConfiguration):
		return http.StatusPreconditionFailed
	case errors.Is(err, service.ErrExtraction):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...} with the mapped status and records err
// for the request logger
func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	c.Error(err)
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}
