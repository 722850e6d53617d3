package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware renders the last gin error after the handler
// chain finished without writing a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// Ledger conflicts map to 400, not 409: the wire contract predates this
// implementation and existing clients key off the status code.
func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, dispenserdomain.ErrInvalidFlowVolume):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: `invalid request: the "flowVolume" property is missing or not a positive number`,
		}
	case isConflictError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "dispenser not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isConflictError(err error) bool {
	return errors.Is(err, tapdomain.ErrTapAlreadyOpen) ||
		errors.Is(err, tapdomain.ErrNoOpenTap)
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, tapdomain.ErrTapAlreadyOpen):
		return "tap already open"
	case errors.Is(err, tapdomain.ErrNoOpenTap):
		return "no open tap event found"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, dispenserdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case asValidationErrors(err) != nil,
		errors.Is(err, dispenserdomain.ErrInvalidFlowVolume):
		return "validation_error", err.Error()
	case isConflictError(err):
		return "conflict", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	default:
		return "internal_error", "internal"
	}
}
