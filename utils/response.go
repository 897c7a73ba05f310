package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"skilltracker/apperrors"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  int         `json:"-"`                 // HTTP status code
	Message string      `json:"message,omitempty"` // Optional message
	Error   string      `json:"error,omitempty"`   // Error message
	Data    interface{} `json:"data,omitempty"`    // Response data
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status: http.StatusOK,
		Data:   data,
	})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, &Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, &Response{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	abortWith(c, http.StatusUnauthorized, message)
}

func BadRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	abortWith(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	abortWith(c, http.StatusConflict, message)
}

func PayloadTooLarge(c *gin.Context, message string) {
	abortWith(c, http.StatusRequestEntityTooLarge, message)
}

func InternalError(c *gin.Context, message string) {
	abortWith(c, http.StatusInternalServerError, message)
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Status: status,
		Error:  message,
	})
}

// RespondError maps a service error onto a status code. Client errors echo
// the annotated message; server errors are logged and answered generically.
func RespondError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		PayloadTooLarge(c, apperrors.PayloadTooLarge.Error())
		return
	}

	switch apperrors.Kind(err) {
	case apperrors.MissingFile, apperrors.UnsupportedType, apperrors.ValidationError:
		BadRequest(c, err.Error())
	case apperrors.PayloadTooLarge:
		PayloadTooLarge(c, err.Error())
	case apperrors.Conflict:
		Conflict(c, err.Error())
	case apperrors.NotFound:
		NotFound(c, err.Error())
	case apperrors.Unauthorized:
		Unauthorized(c, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(RequestIDKey),
			"error", err,
		)
		TrackError(errorType(err))
		InternalError(c, "internal server error")
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, apperrors.PersistenceError):
		return "database"
	case errors.Is(err, apperrors.StorageError):
		return "storage"
	default:
		return "internal"
	}
}
