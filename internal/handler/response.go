package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"semclass/internal/classifier"
	"semclass/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain and transport errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var (
		rlErr     *classifier.RateLimitError
		statusErr *classifier.HTTPStatusError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "document has no content to classify"
	case errors.As(err, &rlErr):
		return http.StatusTooManyRequests, "RATE_LIMITED", "classification service is rate limiting requests; retry later"
	case errors.Is(err, domain.ErrServiceRejected):
		return http.StatusUnprocessableEntity, "SERVICE_REJECTED", err.Error()
	case errors.Is(err, domain.ErrNoAccessToken), errors.Is(err, domain.ErrAPIKeyRequired):
		return http.StatusBadGateway, "UPSTREAM_AUTH_FAILED", "could not authenticate with the classification service"
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "UPSTREAM_ERROR", "classification service returned an error"
	case errors.Is(err, domain.ErrUnrecognizedPayload):
		return http.StatusBadGateway, "UNRECOGNIZED_RESPONSE", "classification service response could not be interpreted"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "classification service did not answer in time"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps an error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] upstream or internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
