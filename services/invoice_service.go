package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/models"
)

// InvoiceData is the flat contract handed to the renderer/notifier. The
// renderer owns formatting; the core only guarantees this shape.
type InvoiceData struct {
	InvoiceNumber string               `json:"invoiceNumber"`
	BookingID     uint                 `json:"bookingId"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	Customer      InvoiceCustomer      `json:"customer"`
	Vehicle       InvoiceVehicle       `json:"vehicle"`
	Service       InvoiceService       `json:"service"`
	Mechanics     []InvoiceMechanic    `json:"mechanics"`
	Parts         []InvoicePart        `json:"parts"`
	Pricing       InvoicePricing       `json:"pricing"`
}

type InvoiceCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type InvoiceVehicle struct {
	Number       string `json:"number"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	FuelType     string `json:"fuelType"`
	Transmission string `json:"transmission"`
	Year         int    `json:"year"`
}

type InvoiceService struct {
	Types           []string `json:"types"`
	Date            string   `json:"date"`
	TimeSlot        string   `json:"timeSlot"`
	SpecialRequests string   `json:"specialRequests"`
	KilometersRun   int      `json:"kilometersRun"`
}

type InvoiceMechanic struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	HourlyRate     float64 `json:"hourlyRate"`
}

type InvoicePart struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	PartNumber string  `json:"partNumber"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

type InvoicePricing struct {
	Labor float64 `json:"labor"`
	Parts float64 `json:"parts"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
}

// GenerateInvoice computes and persists the immutable invoice snapshot for
// a verified booking. Labor charges each assigned mechanic's hourly rate
// once; parts sum the snapshotted line totals; tax is currently zero.
// Calling it again for the same booking returns the existing invoice.
func GenerateInvoice(db *gorm.DB, bookingID uint) (*models.Invoice, error) {
	var booking models.Booking
	if err := db.Preload("Customer").First(&booking, bookingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewWorkflowError(CodeNotFound, "booking not found")
		}
		return nil, err
	}
	if booking.Status != models.BookingVerified && booking.Status != models.BookingCompleted {
		return nil, NewWorkflowError(CodeNotVerified,
			fmt.Sprintf("booking is %s; invoices require a verified booking", booking.Status))
	}

	var existing models.Invoice
	if err := db.Where("booking_id = ?", booking.ID).First(&existing).Error; err == nil {
		return &existing, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var invoice models.Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		jobcard, err := GetJobcardByBooking(tx, booking.ID)
		if err != nil {
			return err
		}

		var assignments []models.MechanicAssignment
		if err := tx.Preload("Mechanic").Where("jobcard_id = ?", jobcard.ID).
			Find(&assignments).Error; err != nil {
			return err
		}
		var partRows []models.SparePartAssignment
		if err := tx.Preload("SparePart").Where("jobcard_id = ?", jobcard.ID).
			Find(&partRows).Error; err != nil {
			return err
		}

		now := timeNow()
		data := InvoiceData{
			InvoiceNumber: newInvoiceNumber(now),
			BookingID:     booking.ID,
			GeneratedAt:   now,
			Customer: InvoiceCustomer{
				Name:  booking.Customer.Name,
				Email: booking.Customer.Email,
				Phone: booking.Customer.Phone,
			},
			Vehicle: InvoiceVehicle{
				Number:       booking.VehicleNumber,
				Brand:        booking.Brand,
				Model:        booking.Model,
				Type:         booking.VehicleType,
				FuelType:     booking.FuelType,
				Transmission: booking.Transmission,
				Year:         booking.Year,
			},
			Service: InvoiceService{
				Types:           booking.ServiceTypes,
				Date:            booking.Date,
				TimeSlot:        booking.TimeSlot,
				SpecialRequests: booking.SpecialRequests,
				KilometersRun:   booking.KilometersRun,
			},
		}

		labor := decimal.Zero
		for _, a := range assignments {
			labor = labor.Add(decimal.NewFromFloat(a.Mechanic.HourlyRate))
			data.Mechanics = append(data.Mechanics, InvoiceMechanic{
				ID:             a.Mechanic.ID,
				Name:           a.Mechanic.Name,
				Specialization: a.Mechanic.Specialization,
				HourlyRate:     a.Mechanic.HourlyRate,
			})
		}
		partsTotal := decimal.Zero
		for _, p := range partRows {
			partsTotal = partsTotal.Add(decimal.NewFromFloat(p.TotalPrice))
			data.Parts = append(data.Parts, InvoicePart{
				ID:         p.SparePart.ID,
				Name:       p.SparePart.Name,
				PartNumber: p.SparePart.PartNumber,
				Quantity:   p.Quantity,
				UnitPrice:  p.UnitPrice,
				TotalPrice: p.TotalPrice,
			})
		}
		tax := decimal.Zero
		total := labor.Add(partsTotal).Add(tax)
		data.Pricing = InvoicePricing{
			Labor: labor.InexactFloat64(),
			Parts: partsTotal.InexactFloat64(),
			Tax:   tax.InexactFloat64(),
			Total: total.InexactFloat64(),
		}

		snapshot, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal invoice snapshot: %w", err)
		}
		rendered, err := GetInvoiceRenderer().Render(&data)
		if err != nil {
			return fmt.Errorf("failed to render invoice: %w", err)
		}

		invoice = models.Invoice{
			BookingID:        booking.ID,
			InvoiceNumber:    data.InvoiceNumber,
			LaborTotal:       data.Pricing.Labor,
			PartsTotal:       data.Pricing.Parts,
			Tax:              data.Pricing.Tax,
			Total:            data.Pricing.Total,
			Status:           models.InvoiceGenerated,
			Snapshot:         string(snapshot),
			RenderedDocument: rendered,
			GeneratedAt:      now,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			if isDuplicateKey(err) {
				// Another request generated it first; reuse theirs.
				return tx.Where("booking_id = ?", booking.ID).First(&invoice).Error
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best-effort archive; the committed invoice stands regardless.
	if store := GetDocumentStore(); store != nil {
		if _, err := store.ArchiveInvoice(invoice.InvoiceNumber, []byte(invoice.RenderedDocument)); err != nil {
			log.Printf("Failed to archive invoice %s: %v", invoice.InvoiceNumber, err)
		}
	}

	return &invoice, nil
}

// FinalizeInvoice performs the gated terminal transition: the booking must
// be verified, the jobcard completed and an invoice generated. The unmet
// precondition is named in the error.
func FinalizeInvoice(db *gorm.DB, bookingID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "booking not found")
			}
			return err
		}
		if booking.Status != models.BookingVerified {
			return NewWorkflowError(CodePreconditionFailed,
				fmt.Sprintf("booking is %s, not verified", booking.Status))
		}

		var jobcard models.Jobcard
		if err := tx.Where("booking_id = ?", booking.ID).First(&jobcard).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodePreconditionFailed, "no jobcard exists for this booking")
			}
			return err
		}
		if jobcard.Status != models.JobcardCompleted {
			return NewWorkflowError(CodePreconditionFailed,
				fmt.Sprintf("jobcard is %s, not completed", jobcard.Status))
		}

		if err := tx.Where("booking_id = ?", booking.ID).First(&invoice).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodePreconditionFailed, "invoice has not been generated")
			}
			return err
		}

		now := timeNow()
		if err := tx.Model(&invoice).Updates(map[string]interface{}{
			"status":       models.InvoiceFinalized,
			"finalized_at": &now,
		}).Error; err != nil {
			return err
		}
		invoice.Status = models.InvoiceFinalized
		invoice.FinalizedAt = &now

		return tx.Model(&booking).Update("status", models.BookingCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// DownloadInvoice returns the stored rendered document for the customer's
// own booking. Always re-read from the snapshot, never recomputed, so the
// customer receives exactly what was generated.
func DownloadInvoice(db *gorm.DB, bookingID, customerID uint) (*models.Invoice, []byte, error) {
	var booking models.Booking
	if err := db.First(&booking, bookingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, NewWorkflowError(CodeNotFound, "booking not found")
		}
		return nil, nil, err
	}
	if booking.CustomerID != customerID {
		return nil, nil, NewWorkflowError(CodeForbidden, "this booking belongs to another customer")
	}

	var invoice models.Invoice
	if err := db.Where("booking_id = ?", booking.ID).First(&invoice).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, NewWorkflowError(CodeNotFound, "no invoice exists for this booking")
		}
		return nil, nil, err
	}
	return &invoice, []byte(invoice.RenderedDocument), nil
}

// newInvoiceNumber builds a unique, human-sortable invoice number.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}
