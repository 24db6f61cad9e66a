package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	revenuedomain "github.com/smallbiznis/revenuepulse/internal/revenue/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

type errorMapping struct {
	target  error
	status  int
	payload errorPayload
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{
		target: revenuedomain.ErrInvalidRange,
		status: http.StatusBadRequest,
		payload: errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   "range",
				Code:    "invalid_range",
				Message: "range must be one of all, 3m, 6m, 12m",
			}},
		},
	},
	{
		target:  revenuedomain.ErrNoSubscriptionData,
		status:  http.StatusNotFound,
		payload: errorPayload{Type: "no_subscription_data", Message: "no subscriptions found"},
	},
	{
		target:  ErrNotFound,
		status:  http.StatusNotFound,
		payload: errorPayload{Type: "not_found", Message: "not found"},
	},
	{
		target:  ErrRateLimited,
		status:  http.StatusTooManyRequests,
		payload: errorPayload{Type: "rate_limited", Message: "too many requests"},
	},
	{
		target:  revenuedomain.ErrSourceUnavailable,
		status:  http.StatusBadGateway,
		payload: errorPayload{Type: "source_unavailable", Message: "payment source unavailable"},
	},
	{
		target:  ErrServiceUnavailable,
		status:  http.StatusServiceUnavailable,
		payload: errorPayload{Type: "service_unavailable", Message: "service unavailable"},
	},
}

var internalErrorPayload = errorPayload{Type: "internal_error", Message: "internal server error"}

// ErrorHandlingMiddleware renders the last handler error as the JSON error
// envelope unless a response was already written.
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

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, internalErrorPayload
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.payload
		}
	}
	return http.StatusInternalServerError, internalErrorPayload
}

// classifyErrorForLog returns the error type and code logged with a failed
// request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
