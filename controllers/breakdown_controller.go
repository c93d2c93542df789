package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/middleware"
	"github.com/garagedesk/garagedesk-api/services"
)

// CreateBreakdownRequestBody represents the request body for a roadside request
type CreateBreakdownRequestBody struct {
	VehicleNumber string  `json:"vehicle_number" binding:"required"`
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	EmergencyType string  `json:"emergency_type" binding:"required"`
	Latitude      float64 `json:"latitude" binding:"required"`
	Longitude     float64 `json:"longitude" binding:"required"`
	Description   string  `json:"description"`
}

// CreateBreakdown handles POST /api/v1/breakdowns - customers only
func CreateBreakdown(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CreateBreakdownRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	request, err := services.CreateBreakdownRequest(config.GetDB(), userID, services.CreateBreakdownInput{
		VehicleNumber: req.VehicleNumber,
		Brand:         req.Brand,
		Model:         req.Model,
		EmergencyType: req.EmergencyType,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Description:   req.Description,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    request,
	})
}

// GetMyBreakdowns handles GET /api/v1/breakdowns/my - the customer's own requests
func GetMyBreakdowns(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	requests, err := services.ListBreakdownRequests(config.GetDB(), userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    requests,
	})
}
