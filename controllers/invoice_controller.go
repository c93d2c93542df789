package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/middleware"
	"github.com/garagedesk/garagedesk-api/services"
)

// GenerateInvoice handles POST /api/v1/bookings/:id/invoice - manager only
func GenerateInvoice(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := services.GenerateInvoice(config.GetDB(), bookingID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// FinalizeInvoice handles POST /api/v1/bookings/:id/invoice/finalize -
// manager only. Completes the booking.
func FinalizeInvoice(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	invoice, err := services.FinalizeInvoice(config.GetDB(), bookingID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    invoice,
	})
}

// DownloadInvoice handles GET /api/v1/bookings/:id/invoice/download -
// returns the stored rendered document for the customer's own booking.
func DownloadInvoice(c *gin.Context) {
	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	invoice, document, err := services.DownloadInvoice(config.GetDB(), bookingID, userID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.InvoiceNumber+`.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", document)
}
