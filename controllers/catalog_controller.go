package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
)

// CreateMechanicRequest represents the request body for adding a mechanic
type CreateMechanicRequest struct {
	Name           string  `json:"name" binding:"required"`
	Specialization string  `json:"specialization"`
	HourlyRate     float64 `json:"hourly_rate" binding:"required,gt=0"`
	UserID         *uint   `json:"user_id"`
}

// UpdateMechanicRequest represents a partial mechanic update
type UpdateMechanicRequest struct {
	Specialization *string  `json:"specialization"`
	HourlyRate     *float64 `json:"hourly_rate"`
	Availability   *string  `json:"availability"`
	IsActive       *bool    `json:"is_active"`
}

// CreateSparePartRequest represents the request body for adding a part
type CreateSparePartRequest struct {
	Name          string  `json:"name" binding:"required"`
	PartNumber    string  `json:"part_number" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
}

// UpdateSparePartRequest represents a partial part update
type UpdateSparePartRequest struct {
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stock_quantity"`
	IsActive      *bool    `json:"is_active"`
}

// ListMechanics handles GET /api/v1/mechanics - staff only
func ListMechanics(c *gin.Context) {
	db := config.GetDB()
	query := db.Order("name")
	if availability := c.Query("availability"); availability != "" {
		query = query.Where("availability = ?", availability)
	}

	var mechanics []models.Mechanic
	if err := query.Find(&mechanics).Error; err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanics,
	})
}

// CreateMechanic handles POST /api/v1/mechanics - manager only
func CreateMechanic(c *gin.Context) {
	var req CreateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	mechanic := models.Mechanic{
		Name:           req.Name,
		Specialization: req.Specialization,
		HourlyRate:     req.HourlyRate,
		Availability:   models.MechanicAvailable,
		IsActive:       true,
		UserID:         req.UserID,
	}
	if err := config.GetDB().Create(&mechanic).Error; err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// UpdateMechanic handles PATCH /api/v1/mechanics/:id - manager only.
// Availability can only be set to the off-floor states here; Busy/Available
// flips belong to the jobcard engine.
func UpdateMechanic(c *gin.Context) {
	mechanicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var mechanic models.Mechanic
	if err := db.First(&mechanic, mechanicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Mechanic not found",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Specialization != nil {
		updates["specialization"] = *req.Specialization
	}
	if req.HourlyRate != nil {
		updates["hourly_rate"] = *req.HourlyRate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Availability != nil {
		if !models.IsValidAvailability(*req.Availability) ||
			*req.Availability == models.MechanicBusy {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Availability can only be set to Available, On Break or Off Duty",
				},
			})
			return
		}
		updates["availability"] = *req.Availability
	}

	if len(updates) > 0 {
		if err := db.Model(&mechanic).Updates(updates).Error; err != nil {
			respondWorkflowError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mechanic,
	})
}

// ListSpareParts handles GET /api/v1/spare-parts - staff only
func ListSpareParts(c *gin.Context) {
	var parts []models.SparePart
	if err := config.GetDB().Order("name").Find(&parts).Error; err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    parts,
	})
}

// CreateSparePart handles POST /api/v1/spare-parts - manager only
func CreateSparePart(c *gin.Context) {
	var req CreateSparePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	part := models.SparePart{
		Name:          req.Name,
		PartNumber:    req.PartNumber,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
	}
	if err := config.GetDB().Create(&part).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PART_NUMBER_TAKEN",
				"message": "A part with this part number already exists",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    part,
	})
}

// UpdateSparePart handles PATCH /api/v1/spare-parts/:id - manager only
func UpdateSparePart(c *gin.Context) {
	partID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateSparePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB()
	var part models.SparePart
	if err := db.First(&part, partID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Spare part not found",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Stock quantity cannot be negative",
				},
			})
			return
		}
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(&part).Updates(updates).Error; err != nil {
			respondWorkflowError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    part,
	})
}
