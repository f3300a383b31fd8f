package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
	"github.com/fulfillhub/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// tenantIDParam parses the :id path parameter as a tenant UUID
func tenantIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// errorCodeFor maps domain sentinel errors to API error codes
func errorCodeFor(err error) string {
	switch {
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, syncdomain.ErrStatusNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, syncdomain.ErrSyncAlreadyRunning):
		return dto.ErrCodeSyncRunning
	case errors.Is(err, syncdomain.ErrNotConfigured):
		return dto.ErrCodeNotConfigured
	case errors.Is(err, syncdomain.ErrBudgetInsufficientForRequired),
		errors.Is(err, syncdomain.ErrInsufficientCredits):
		return dto.ErrCodeBudgetInsufficient
	case errors.Is(err, syncdomain.ErrInvalidSignature):
		return dto.ErrCodeInvalidSignature
	case errors.Is(err, syncdomain.ErrMalformedPayload):
		return dto.ErrCodeBadRequest
	case errors.Is(err, syncdomain.ErrInvalidCredentials),
		errors.Is(err, syncdomain.ErrUnknownSystemFamily):
		return dto.ErrCodeInvalidInput
	case errors.Is(err, syncdomain.ErrAuthFailed):
		return dto.ErrCodeUpstreamAuth
	case errors.Is(err, syncdomain.ErrRateLimited):
		return dto.ErrCodeRateLimited
	case errors.Is(err, syncdomain.ErrTransient),
		errors.Is(err, syncdomain.ErrUpstream),
		errors.Is(err, syncdomain.ErrInvalidResponse):
		return dto.ErrCodeUpstream
	default:
		return dto.ErrCodeInternal
	}
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := errorCodeFor(err)
	message := err.Error()
	if code == dto.ErrCodeInternal {
		// Never leak internals to clients
		message = "An unexpected error occurred"
	}
	h.ErrorWithCode(c, code, message)
}
