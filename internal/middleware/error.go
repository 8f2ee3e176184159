package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/quoteflow/cadence-api/pkg/errors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		message := "internal server error"

		if appErr, ok := lastErr.Err.(*errors.AppError); ok {
			switch appErr.Code {
			case errors.ErrNotFound:
				status = http.StatusNotFound
			case errors.ErrBadRequest:
				status = http.StatusBadRequest
			case errors.ErrUnauthorized:
				status = http.StatusUnauthorized
			case errors.ErrForbidden:
				status = http.StatusForbidden
			case errors.ErrConflict:
				status = http.StatusConflict
			}
			message = appErr.Message
		}

		c.JSON(status, ErrorResponse{
			Code:      status,
			Message:   message,
			RequestID: requestID,
		})
	}
}
