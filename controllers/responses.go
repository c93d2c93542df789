package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/services"
)

// respondWorkflowError maps a service error onto the response envelope.
// Unknown errors become a generic 500 without leaking internals.
func respondWorkflowError(c *gin.Context, err error) {
	if we, ok := services.AsWorkflowError(err); ok {
		body := gin.H{
			"code":    we.Code,
			"message": we.Message,
		}
		if we.Details != nil {
			body["details"] = we.Details
		}
		c.JSON(services.HTTPStatus(we.Code), gin.H{
			"success": false,
			"error":   body,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": "An unexpected error occurred",
		},
	})
}

// respondValidationError returns a 400 with binding details.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondUnauthorized returns a 401 for missing auth context.
func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Could not extract user information",
		},
	})
}
