package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/utils"
)

func bookingTestRouter(userID uint, role string) *gin.Engine {
	router := gin.New()
	router.GET("/bookings/slots", GetAvailableSlots)
	auth := router.Group("", mockAuth(userID, role))
	auth.POST("/bookings", CreateBooking)
	auth.GET("/bookings", ListBookings)
	auth.GET("/bookings/my", GetMyBookings)
	auth.GET("/bookings/:id", GetBooking)
	auth.PATCH("/bookings/:id/status", UpdateBookingStatus)
	return router
}

func TestCreateBookingEndpoint(t *testing.T) {
	db := setupControllerTest(t)
	customer := seedCustomer(t, db, "asha@example.com")
	router := bookingTestRouter(customer.ID, models.RoleCustomer)

	w := performRequest(router, http.MethodPost, "/bookings",
		bookingPayload(testFutureDate(2), utils.TimeSlots[0]))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, utils.TimeSlots[0], data["time_slot"])
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	db := setupControllerTest(t)
	customer := seedCustomer(t, db, "asha@example.com")
	router := bookingTestRouter(customer.ID, models.RoleCustomer)

	// Missing required fields fail at binding.
	w := performRequest(router, http.MethodPost, "/bookings", gin.H{"phone": "9876543210"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	// A full payload with a workflow violation surfaces the service code.
	payload := bookingPayload(testFutureDate(2), utils.TimeSlots[1])
	w = performRequest(router, http.MethodPost, "/bookings", payload)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = performRequest(router, http.MethodPost, "/bookings", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLOT_CONFLICT", errorCode(t, w))
}

func TestGetAvailableSlotsEndpoint(t *testing.T) {
	db := setupControllerTest(t)
	customer := seedCustomer(t, db, "asha@example.com")
	router := bookingTestRouter(customer.ID, models.RoleCustomer)
	date := testFutureDate(3)

	w := performRequest(router, http.MethodGet, "/bookings/slots?date="+date, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["available_slots"], 8)

	// The date parameter is mandatory.
	w = performRequest(router, http.MethodGet, "/bookings/slots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookingOwnership(t *testing.T) {
	db := setupControllerTest(t)
	owner := seedCustomer(t, db, "asha@example.com")
	stranger := seedCustomer(t, db, "vikram@example.com")

	ownerRouter := bookingTestRouter(owner.ID, models.RoleCustomer)
	w := performRequest(ownerRouter, http.MethodPost, "/bookings",
		bookingPayload(testFutureDate(2), utils.TimeSlots[0]))
	assert.Equal(t, http.StatusCreated, w.Code)
	bookingID := uint(decodeEnvelope(t, w)["data"].(map[string]interface{})["id"].(float64))

	path := fmt.Sprintf("/bookings/%d", bookingID)

	// The owner can read it.
	w = performRequest(ownerRouter, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another customer cannot.
	strangerRouter := bookingTestRouter(stranger.ID, models.RoleCustomer)
	w = performRequest(strangerRouter, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	// Staff can.
	staffRouter := bookingTestRouter(999, models.RoleServiceAdvisor)
	w = performRequest(staffRouter, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateBookingStatusEndpoint(t *testing.T) {
	db := setupControllerTest(t)
	customer := seedCustomer(t, db, "asha@example.com")
	customerRouter := bookingTestRouter(customer.ID, models.RoleCustomer)
	staffRouter := bookingTestRouter(999, models.RoleReceptionist)

	w := performRequest(customerRouter, http.MethodPost, "/bookings",
		bookingPayload(testFutureDate(2), utils.TimeSlots[0]))
	assert.Equal(t, http.StatusCreated, w.Code)
	bookingID := uint(decodeEnvelope(t, w)["data"].(map[string]interface{})["id"].(float64))

	path := fmt.Sprintf("/bookings/%d/status", bookingID)

	w = performRequest(staffRouter, http.MethodPatch, path, gin.H{"status": "arrived"})
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "arrived", data["status"])

	// completed is never accepted through this endpoint.
	w = performRequest(staffRouter, http.MethodPatch, path, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))

	w = performRequest(staffRouter, http.MethodPatch, path, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS", errorCode(t, w))

	w = performRequest(staffRouter, http.MethodPatch, "/bookings/9999/status", gin.H{"status": "arrived"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMyBookingsEndpoint(t *testing.T) {
	db := setupControllerTest(t)
	mine := seedCustomer(t, db, "asha@example.com")
	other := seedCustomer(t, db, "vikram@example.com")

	mineRouter := bookingTestRouter(mine.ID, models.RoleCustomer)
	otherRouter := bookingTestRouter(other.ID, models.RoleCustomer)

	performRequest(mineRouter, http.MethodPost, "/bookings", bookingPayload(testFutureDate(2), utils.TimeSlots[0]))
	performRequest(otherRouter, http.MethodPost, "/bookings", bookingPayload(testFutureDate(2), utils.TimeSlots[1]))

	w := performRequest(mineRouter, http.MethodGet, "/bookings/my", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
}
