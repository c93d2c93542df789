package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/middleware"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/services"
)

// AssignMechanicsRequest represents the request body for mechanic assignment
type AssignMechanicsRequest struct {
	MechanicIDs []uint `json:"mechanic_ids" binding:"required,min=1"`
}

// AssignSparePartsRequest represents the request body for parts assignment
type AssignSparePartsRequest struct {
	Parts []services.PartRequest `json:"parts" binding:"required,min=1,dive"`
}

// CompleteWorkRequest represents the request body for work completion
type CompleteWorkRequest struct {
	MechanicID uint   `json:"mechanic_id"` // required for managers; ignored for mechanic users
	Notes      string `json:"notes"`
}

// GetJobcard handles GET /api/v1/jobcards/:id - staff only
func GetJobcard(c *gin.Context) {
	jobcardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	jobcard, mechanics, parts, err := services.GetJobcard(config.GetDB(), jobcardID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"jobcard":   jobcard,
			"mechanics": mechanics,
			"parts":     parts,
		},
	})
}

// AssignMechanics handles PUT /api/v1/jobcards/:id/mechanics
func AssignMechanics(c *gin.Context) {
	jobcardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignMechanicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	jobcard, err := services.AssignMechanics(config.GetDB(), jobcardID, req.MechanicIDs)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    jobcard,
	})
}

// AssignSpareParts handles PUT /api/v1/jobcards/:id/parts
func AssignSpareParts(c *gin.Context) {
	jobcardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignSparePartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	jobcard, err := services.AssignSpareParts(config.GetDB(), jobcardID, req.Parts)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    jobcard,
	})
}

// CompleteWork handles POST /api/v1/jobcards/:id/complete. A mechanic user
// completes their own portion; a manager may complete on a mechanic's
// behalf by naming them in the body.
func CompleteWork(c *gin.Context) {
	jobcardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CompleteWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	mechanicID := req.MechanicID

	role, _ := middleware.GetUserRole(c)
	if role == models.RoleMechanic {
		userID, err := middleware.GetUserID(c)
		if err != nil {
			respondUnauthorized(c)
			return
		}
		var mech models.Mechanic
		if err := db.Where("user_id = ?", userID).First(&mech).Error; err != nil {
			respondWorkflowError(c, services.NewWorkflowError(services.CodeNotFound,
				"no mechanic record is linked to this account"))
			return
		}
		mechanicID = mech.ID
	}
	if mechanicID == 0 {
		respondWorkflowError(c, services.NewWorkflowError(services.CodeValidationError,
			"mechanic_id is required"))
		return
	}

	result, err := services.CompleteMechanicWork(db, jobcardID, mechanicID, req.Notes)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ApproveJobcard handles POST /api/v1/jobcards/:id/approve - service advisor
// sign-off that completes the jobcard and verifies the booking.
func ApproveJobcard(c *gin.Context) {
	jobcardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := services.ApproveJobcard(config.GetDB(), jobcardID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
