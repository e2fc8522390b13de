// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgBodyTooLarge  = "Request body too large"
	msgInternalError = "Internal server error"
	msgReceiptFailed = "Failed to generate receipt"
)

// respondError maps a service error onto a status code and an {error} body
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	entry := logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}).WithError(err)

	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrEmptyCart):
		entry.Warn("request rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.IsNotFound(err):
		entry.Warn("resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCheckoutInProgress):
		entry.Warn("idempotency key busy")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		entry.Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
	}
}

// failureMessage names the failed operation without exposing the cause
func failureMessage(err error) string {
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) && storeErr.Op != "" {
		return "Failed to " + storeErr.Op
	}
	return msgInternalError
}

// bindJSON decodes the request body into req. An empty body leaves req at
// its zero value so that the service reports the missing fields.
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgBodyTooLarge})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
	return false
}
