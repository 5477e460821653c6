package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/gradebook-service/internal/services"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	BaseHandler
	gradebookService services.GradebookService
}

func NewCategoryHandler(gradebookService services.GradebookService, logger utils.Logger) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradebookService: gradebookService,
	}
}

// CreateCategory creates a gradebook category
// @Summary Create category
// @Description Creates a category in the given gradebook scope; sort order is allocated automatically
// @Tags categories
// @Accept json
// @Produce json
// @Param category body services.CreateCategoryRequest true "Category data"
// @Success 201 {object} models.GradebookCategory
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	h.LogRequest(c, "Creating gradebook category")

	var req services.CreateCategoryRequest
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

	category, err := h.gradebookService.CreateCategory(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// GetCategory returns one category
// @Summary Get category
// @Tags categories
// @Produce json
// @Param id path uint true "Category ID"
// @Success 200 {object} models.GradebookCategory
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	category, err := h.gradebookService.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// UpdateCategory patches a category's mutable fields
// @Summary Update category
// @Description Updates name, description, weight or extra-credit flag; the parent scope never changes here
// @Tags categories
// @Accept json
// @Produce json
// @Param id path uint true "Category ID"
// @Param category body services.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} models.GradebookCategory
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating gradebook category", "category_id", id)

	var req services.UpdateCategoryRequest
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

	category, err := h.gradebookService.UpdateCategory(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes an empty category
// @Summary Delete category
// @Description Deletes a category; rejected with 409 while subcategories or items remain
// @Tags categories
// @Produce json
// @Param id path uint true "Category ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting gradebook category", "category_id", id)

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.gradebookService.DeleteCategory(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Category deleted successfully",
	})
}

// MoveCategory re-parents a category
// @Summary Move category
// @Description Moves a category to a new parent scope (null parent = gradebook root) and appends it to that scope's order
// @Tags categories
// @Accept json
// @Produce json
// @Param id path uint true "Category ID"
// @Param move body services.MoveRequest true "Target scope"
// @Success 200 {object} models.GradebookCategory
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /categories/{id}/move [post]
func (h *CategoryHandler) MoveCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Moving gradebook category", "category_id", id)

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

	category, err := h.gradebookService.MoveCategory(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}
