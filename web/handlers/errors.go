package handlers

import (
	"net/http"

	apperrors "tas-agent/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError), zap.String("path", c.FullPath()))
		logger.Error("Request failed", fields...)
	}

	// Return user-friendly message
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage})
}

// respondWithLookupError maps metadata and catalog failures onto status codes.
func respondWithLookupError(c *gin.Context, err error, logger *zap.Logger, fields ...zap.Field) {
	switch {
	case apperrors.IsInvalidInput(err):
		respondWithClientError(c, http.StatusBadRequest, "Invalid data id")
	case apperrors.IsNotFound(err):
		respondWithClientError(c, http.StatusNotFound, "Metadata not found")
	case apperrors.IsCatalogRead(err):
		respondWithError(c, http.StatusServiceUnavailable, err, "Catalog temporarily unavailable", logger, fields...)
	default:
		respondWithError(c, http.StatusInternalServerError, err, "Failed to read metadata", logger, fields...)
	}
}
