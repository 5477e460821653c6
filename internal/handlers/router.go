package handlers

import (
	"github.com/SAP-F-2025/gradebook-service/internal/services"
	"github.com/SAP-F-2025/gradebook-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	gradebookHandler *GradebookHandler
	categoryHandler  *CategoryHandler
	itemHandler      *ItemHandler
}

func NewHandlerManager(
	gradebookService services.GradebookService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		gradebookHandler: NewGradebookHandler(gradebookService, exportService, logger),
		categoryHandler:  NewCategoryHandler(gradebookService, logger),
		itemHandler:      NewItemHandler(gradebookService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Gradebook read side
		gradebooks := v1.Group("/gradebooks")
		{
			gradebooks.GET("/:id/structure", hm.gradebookHandler.GetStructure)
			gradebooks.GET("/:id/weights", hm.gradebookHandler.GetWeightReport)
			gradebooks.GET("/:id/enrollments/:enrollment_id/grade", hm.gradebookHandler.GetEnrollmentGrade)
			gradebooks.GET("/:id/export", hm.gradebookHandler.ExportGrades)
		}

		// Category lifecycle
		categories := v1.Group("/categories")
		{
			categories.POST("", hm.categoryHandler.CreateCategory)
			categories.GET("/:id", hm.categoryHandler.GetCategory)
			categories.PUT("/:id", hm.categoryHandler.UpdateCategory)
			categories.DELETE("/:id", hm.categoryHandler.DeleteCategory)
			categories.POST("/:id/move", hm.categoryHandler.MoveCategory)
		}

		// Item lifecycle
		items := v1.Group("/items")
		{
			items.POST("", hm.itemHandler.CreateItem)
			items.GET("/:id", hm.itemHandler.GetItem)
			items.PUT("/:id", hm.itemHandler.UpdateItem)
			items.DELETE("/:id", hm.itemHandler.DeleteItem)
			items.POST("/:id/move", hm.itemHandler.MoveItem)
			items.PUT("/:id/scores/:enrollment_id", hm.itemHandler.RecordScore)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "gradebook-service",
		})
	})
}
