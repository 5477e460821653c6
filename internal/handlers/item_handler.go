package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/gradebook-service/internal/services"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ItemHandler struct {
	BaseHandler
	gradebookService services.GradebookService
}

func NewItemHandler(gradebookService services.GradebookService, logger utils.Logger) *ItemHandler {
	return &ItemHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradebookService: gradebookService,
	}
}

// CreateItem creates a gradebook item
// @Summary Create item
// @Description Creates a manual or activity-linked item in the given scope; sort order is allocated automatically
// @Tags items
// @Accept json
// @Produce json
// @Param item body services.CreateItemRequest true "Item data"
// @Success 201 {object} models.GradebookItem
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /items [post]
func (h *ItemHandler) CreateItem(c *gin.Context) {
	h.LogRequest(c, "Creating gradebook item")

	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	item, err := h.gradebookService.CreateItem(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// GetItem returns one item
// @Summary Get item
// @Tags items
// @Produce json
// @Param id path uint true "Item ID"
// @Success 200 {object} models.GradebookItem
// @Failure 404 {object} ErrorResponse
// @Router /items/{id} [get]
func (h *ItemHandler) GetItem(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	item, err := h.gradebookService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateItem patches an item's mutable fields
// @Summary Update item
// @Description Updates grading bounds, weight or metadata; the category scope only changes through move
// @Tags items
// @Accept json
// @Produce json
// @Param id path uint true "Item ID"
// @Param item body services.UpdateItemRequest true "Fields to update"
// @Success 200 {object} models.GradebookItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /items/{id} [put]
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating gradebook item", "item_id", id)

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	item, err := h.gradebookService.UpdateItem(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem removes an item and its stored scores
// @Summary Delete item
// @Tags items
// @Produce json
// @Param id path uint true "Item ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /items/{id} [delete]
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting gradebook item", "item_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.gradebookService.DeleteItem(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Item deleted successfully",
	})
}

// RecordScore writes one enrollment's raw score on an item
// @Summary Record score
// @Description Records or replaces an enrollment's raw score; grader and feedback are stored alongside
// @Tags items
// @Accept json
// @Produce json
// @Param id path uint true "Item ID"
// @Param enrollment_id path uint true "Enrollment ID"
// @Param score body services.RecordScoreRequest true "Score data"
// @Success 200 {object} models.ItemScore
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /items/{id}/scores/{enrollment_id} [put]
func (h *ItemHandler) RecordScore(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	enrollmentID := h.parseIDParam(c, "enrollment_id")
	if enrollmentID == 0 {
		return
	}

	h.LogRequest(c, "Recording item score", "item_id", id, "enrollment_id", enrollmentID)

	var req services.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	score, err := h.gradebookService.RecordScore(c.Request.Context(), id, enrollmentID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

// MoveItem re-parents an item
// @Summary Move item
// @Description Moves an item to a new category scope (null parent = gradebook root) and appends it to that scope's order
// @Tags items
// @Accept json
// @Produce json
// @Param id path uint true "Item ID"
// @Param move body services.MoveRequest true "Target scope"
// @Success 200 {object} models.GradebookItem
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /items/{id}/move [post]
func (h *ItemHandler) MoveItem(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Moving gradebook item", "item_id", id)

	var req services.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	item, err := h.gradebookService.MoveItem(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
