package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/gradebook-service/internal/services"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradebookHandler struct {
	BaseHandler
	gradebookService services.GradebookService
	exportService    services.ExportService
}

func NewGradebookHandler(
	gradebookService services.GradebookService,
	exportService services.ExportService,
	logger utils.Logger,
) *GradebookHandler {
	return &GradebookHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradebookService: gradebookService,
		exportService:    exportService,
	}
}

// GetStructure returns the ordered display tree for a gradebook scope
// @Summary Get gradebook structure
// @Description Returns the category/item tree for one scope; omit scope_id for the full gradebook root view
// @Tags gradebooks
// @Produce json
// @Param id path uint true "Gradebook ID"
// @Param scope_id query uint false "Category scope (omit for root)"
// @Success 200 {array} models.StructureNode
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /gradebooks/{id}/structure [get]
func (h *GradebookHandler) GetStructure(c *gin.Context) {
	gradebookID := h.parseIDParam(c, "id")
	if gradebookID == 0 {
		return
	}

	scopeID, ok := h.parseScopeQuery(c)
	if !ok {
		return
	}

	structure, err := h.gradebookService.GetStructure(c.Request.Context(), gradebookID, scopeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, structure)
}

// GetWeightReport returns the advisory weight validation report
// @Summary Get weight report
// @Description Reports the calculated root total, max grade sum and any scopes whose weights cannot normalize
// @Tags gradebooks
// @Produce json
// @Param id path uint true "Gradebook ID"
// @Success 200 {object} services.WeightReport
// @Failure 404 {object} ErrorResponse
// @Router /gradebooks/{id}/weights [get]
func (h *GradebookHandler) GetWeightReport(c *gin.Context) {
	gradebookID := h.parseIDParam(c, "id")
	if gradebookID == 0 {
		return
	}

	report, err := h.gradebookService.GetWeightReport(c.Request.Context(), gradebookID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetEnrollmentGrade computes one enrollment's aggregate grade
// @Summary Get enrollment grade
// @Description Computes the weighted final grade; percentage is null while nothing has been graded
// @Tags gradebooks
// @Produce json
// @Param id path uint true "Gradebook ID"
// @Param enrollment_id path uint true "Enrollment ID"
// @Success 200 {object} services.GradeResult
// @Failure 404 {object} ErrorResponse
// @Router /gradebooks/{id}/enrollments/{enrollment_id}/grade [get]
func (h *GradebookHandler) GetEnrollmentGrade(c *gin.Context) {
	gradebookID := h.parseIDParam(c, "id")
	if gradebookID == 0 {
		return
	}
	enrollmentID := h.parseIDParam(c, "enrollment_id")
	if enrollmentID == 0 {
		return
	}

	result, err := h.gradebookService.ComputeEnrollmentGrade(c.Request.Context(), gradebookID, enrollmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportGrades streams a grade sheet
// @Summary Export grades
// @Description Renders the gradebook's grades as a CSV or XLSX download
// @Tags gradebooks
// @Produce octet-stream
// @Param id path uint true "Gradebook ID"
// @Param format query string false "Export format: csv or xlsx" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /gradebooks/{id}/export [get]
func (h *GradebookHandler) ExportGrades(c *gin.Context) {
	gradebookID := h.parseIDParam(c, "id")
	if gradebookID == 0 {
		return
	}

	format := c.DefaultQuery("format", "csv")

	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting grade sheet", "gradebook_id", gradebookID, "format", format)

	export, err := h.exportService.ExportGrades(c.Request.Context(), gradebookID, format, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+export.FileName)
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
