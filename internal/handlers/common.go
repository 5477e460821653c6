package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/gradebook-service/internal/services"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", h.extractUserID(c),
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get("user_id"); exists {
		return userID
	}
	return nil
}

// currentUserID pulls the authenticated user from the request context set by
// the auth middleware upstream. Responds 401 itself when absent.
func (h *BaseHandler) currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	id, ok := userID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	return id, true
}

// parseIDParam parses a numeric path parameter; 0 means the response has
// already been written.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

// parseScopeQuery reads the optional scope_id query parameter; nil means the
// gradebook root.
func (h *BaseHandler) parseScopeQuery(c *gin.Context) (*uint, bool) {
	raw, present := c.GetQuery("scope_id")
	if !present || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid scope_id",
		})
		return nil, false
	}
	scope := uint(id)
	return &scope, true
}

// handleServiceError maps service errors onto HTTP statuses: validation
// failures are 400, missing resources 404, structural invariant violations
// 422, and lifecycle conflicts 409.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var structuralError *services.StructuralError
	if errors.As(err, &structuralError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: structuralError.Message,
			Details: map[string]interface{}{
				"invariant": structuralError.Invariant,
				"context":   structuralError.Context,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrGradebookNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Gradebook not found",
		})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Category not found",
		})
	case errors.Is(err, services.ErrItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Item not found",
		})
	case errors.Is(err, services.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Enrollment not found",
		})
	case errors.Is(err, services.ErrCategoryNotEmpty):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Category still contains subcategories or items",
		})
	case errors.Is(err, services.ErrDuplicateSortOrder):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Sort order already used within scope",
		})
	case errors.Is(err, services.ErrCategoryParentMissing):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Parent category does not exist",
		})
	case errors.Is(err, services.ErrCategoryWrongGradebook):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Parent category belongs to a different gradebook",
		})
	case errors.Is(err, services.ErrStructureCycle):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Category parent chain contains a cycle",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Bad request",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Resource conflict",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
