package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/middleware"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/services"
)

// CreateBookingRequest represents the request body for creating a booking
type CreateBookingRequest struct {
	Phone           string   `json:"phone" binding:"required"`
	VehicleNumber   string   `json:"vehicle_number" binding:"required"`
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	VehicleType     string   `json:"vehicle_type"`
	FuelType        string   `json:"fuel_type"`
	Transmission    string   `json:"transmission"`
	Year            int      `json:"year"`
	ServiceTypes    []string `json:"service_types" binding:"required,min=1"`
	Date            string   `json:"date" binding:"required"`
	TimeSlot        string   `json:"time_slot" binding:"required"`
	SpecialRequests string   `json:"special_requests"`
	KilometersRun   int      `json:"kilometers_run"`
}

// UpdateBookingStatusRequest represents the request body for a status update
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SubmitJobcardRequest carries the service advisor's combined submission
type SubmitJobcardRequest struct {
	MechanicIDs []uint                 `json:"mechanic_ids"`
	Parts       []services.PartRequest `json:"parts"`
}

// CreateBooking handles POST /api/v1/bookings - books a service slot (customers only)
func CreateBooking(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := services.CreateBooking(config.GetDB(), userID, services.CreateBookingInput{
		Phone:           req.Phone,
		VehicleNumber:   req.VehicleNumber,
		Brand:           req.Brand,
		Model:           req.Model,
		VehicleType:     req.VehicleType,
		FuelType:        req.FuelType,
		Transmission:    req.Transmission,
		Year:            req.Year,
		ServiceTypes:    req.ServiceTypes,
		Date:            req.Date,
		TimeSlot:        req.TimeSlot,
		SpecialRequests: req.SpecialRequests,
		KilometersRun:   req.KilometersRun,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    booking,
	})
}

// GetAvailableSlots handles GET /api/v1/bookings/slots?date=YYYY-MM-DD
func GetAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "date query parameter is required",
			},
		})
		return
	}

	availability, err := services.GetAvailableSlots(config.GetDB(), date)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    availability,
	})
}

// CheckAvailability handles GET /api/v1/bookings/availability
func CheckAvailability(c *gin.Context) {
	availability, err := services.CheckAvailability(config.GetDB())
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    availability,
	})
}

// ListBookings handles GET /api/v1/bookings - all bookings, staff only.
// Supports optional ?date= and ?status= filters.
func ListBookings(c *gin.Context) {
	db := config.GetDB()
	query := db.Preload("Customer").Order("date, time_slot")
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// GetMyBookings handles GET /api/v1/bookings/my - the customer's own bookings
func GetMyBookings(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var bookings []models.Booking
	if err := config.GetDB().Where("customer_id = ?", userID).
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    bookings,
	})
}

// GetBooking handles GET /api/v1/bookings/:id - owner or staff
func GetBooking(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	booking, err := services.GetBooking(config.GetDB(), bookingID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	role, _ := middleware.GetUserRole(c)
	if role == models.RoleCustomer && booking.CustomerID != userID {
		respondWorkflowError(c, services.NewWorkflowError(services.CodeForbidden,
			"this booking belongs to another customer"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

// UpdateBookingStatus handles PATCH /api/v1/bookings/:id/status - staff only.
// The terminal "completed" transition is rejected here; it only happens
// through invoice finalization.
func UpdateBookingStatus(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	booking, err := services.UpdateBookingStatus(config.GetDB(), bookingID, req.Status)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    booking,
	})
}

// SubmitJobcard handles POST /api/v1/bookings/:id/jobcard/submit - service
// advisor submits mechanics and parts together.
func SubmitJobcard(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SubmitJobcardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	jobcard, err := services.SubmitJobcard(config.GetDB(), bookingID, req.MechanicIDs, req.Parts)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    jobcard,
	})
}

// parseIDParam reads a numeric path parameter, writing a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid id parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}
