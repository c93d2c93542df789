package services

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/utils"
)

// timeNow is swapped out in tests that exercise "today" and night-hour logic.
var timeNow = time.Now

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// CreateBookingInput carries the customer-facing booking details.
type CreateBookingInput struct {
	Phone           string
	VehicleNumber   string
	Brand           string
	Model           string
	VehicleType     string
	FuelType        string
	Transmission    string
	Year            int
	ServiceTypes    []string
	Date            string
	TimeSlot        string
	SpecialRequests string
	KilometersRun   int
}

// SlotAvailability partitions the canonical slot table for one date.
type SlotAvailability struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}

// DayAvailability reports today's booking capacity.
type DayAvailability struct {
	Date      string `json:"date"`
	Booked    int    `json:"booked"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// CreateBooking allocates a slot for a new booking. The daily cap and slot
// exclusivity are checked inside one transaction; the partial unique index
// on (date, time_slot) backstops the check-then-insert race so a concurrent
// loser sees SLOT_CONFLICT, never a silent double-book.
func CreateBooking(db *gorm.DB, customerID uint, in CreateBookingInput) (*models.Booking, error) {
	cfg := config.GetConfig()
	loc := utils.ShopLocation(cfg.ShopTimezone)

	if !phonePattern.MatchString(in.Phone) {
		return nil, NewWorkflowError(CodeValidationError, "phone must be exactly 10 digits")
	}
	if in.VehicleNumber == "" {
		return nil, NewWorkflowError(CodeValidationError, "vehicle number is required")
	}
	if len(in.ServiceTypes) == 0 {
		return nil, NewWorkflowError(CodeValidationError, "at least one service type is required")
	}
	day, err := utils.ParseBookingDate(in.Date, loc)
	if err != nil {
		return nil, NewWorkflowError(CodeValidationError, err.Error())
	}
	today, _ := utils.ParseBookingDate(timeNow().In(loc).Format(utils.DateLayout), loc)
	if day.Before(today) {
		return nil, NewWorkflowError(CodeValidationError, "date must not be in the past")
	}
	if !utils.IsValidTimeSlot(in.TimeSlot) {
		return nil, NewWorkflowError(CodeValidationError, "time slot is not one of the daily slots")
	}

	booking := &models.Booking{
		CustomerID:      customerID,
		VehicleNumber:   in.VehicleNumber,
		Brand:           in.Brand,
		Model:           in.Model,
		VehicleType:     in.VehicleType,
		FuelType:        in.FuelType,
		Transmission:    in.Transmission,
		Year:            in.Year,
		ServiceTypes:    models.StringList(in.ServiceTypes),
		Date:            day.Format(utils.DateLayout),
		TimeSlot:        in.TimeSlot,
		SpecialRequests: in.SpecialRequests,
		KilometersRun:   in.KilometersRun,
		Status:          models.BookingPending,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// The daily cap is a count over rows that do not exist yet, so the
		// slot index cannot enforce it. Serialize writers for the same date
		// with a transaction-scoped advisory lock; sqlite already runs one
		// writer at a time.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", booking.Date).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.Booking{}).
			Where("date = ? AND status <> ?", booking.Date, models.BookingCancelled).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(cfg.BookingDailyLimit) {
			return NewWorkflowError(CodeCapacityExceeded,
				fmt.Sprintf("daily booking limit of %d reached for %s", cfg.BookingDailyLimit, booking.Date))
		}

		var occupied int64
		if err := tx.Model(&models.Booking{}).
			Where("date = ? AND time_slot = ? AND status <> ?", booking.Date, booking.TimeSlot, models.BookingCancelled).
			Count(&occupied).Error; err != nil {
			return err
		}
		if occupied > 0 {
			return NewWorkflowError(CodeSlotConflict,
				fmt.Sprintf("slot %q on %s is already booked", booking.TimeSlot, booking.Date))
		}

		if err := tx.Create(booking).Error; err != nil {
			if isDuplicateKey(err) {
				// Lost the race for the slot; the index kept the invariant.
				return NewWorkflowError(CodeSlotConflict,
					fmt.Sprintf("slot %q on %s is already booked", booking.TimeSlot, booking.Date))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetAvailableSlots partitions the 8 daily slots into available/booked for
// the given date. Pure read.
func GetAvailableSlots(db *gorm.DB, date string) (*SlotAvailability, error) {
	cfg := config.GetConfig()
	loc := utils.ShopLocation(cfg.ShopTimezone)

	day, err := utils.ParseBookingDate(date, loc)
	if err != nil {
		return nil, NewWorkflowError(CodeValidationError, err.Error())
	}

	var booked []string
	if err := db.Model(&models.Booking{}).
		Where("date = ? AND status <> ?", day.Format(utils.DateLayout), models.BookingCancelled).
		Pluck("time_slot", &booked).Error; err != nil {
		return nil, err
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, slot := range booked {
		bookedSet[slot] = true
	}

	result := &SlotAvailability{Date: day.Format(utils.DateLayout)}
	for _, slot := range utils.TimeSlots {
		if bookedSet[slot] {
			result.BookedSlots = append(result.BookedSlots, slot)
		} else {
			result.AvailableSlots = append(result.AvailableSlots, slot)
		}
	}
	return result, nil
}

// CheckAvailability reports the booking count against the daily limit for
// today in shop-local time. Pure read.
func CheckAvailability(db *gorm.DB) (*DayAvailability, error) {
	cfg := config.GetConfig()
	loc := utils.ShopLocation(cfg.ShopTimezone)
	today := timeNow().In(loc).Format(utils.DateLayout)

	var count int64
	if err := db.Model(&models.Booking{}).
		Where("date = ? AND status <> ?", today, models.BookingCancelled).
		Count(&count).Error; err != nil {
		return nil, err
	}

	remaining := cfg.BookingDailyLimit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &DayAvailability{
		Date:      today,
		Booked:    int(count),
		Limit:     cfg.BookingDailyLimit,
		Remaining: remaining,
	}, nil
}

// UpdateBookingStatus runs the generic booking transition. The arrival
// transition creates the jobcard exactly once; "completed" is rejected here
// and only reachable through FinalizeInvoice.
func UpdateBookingStatus(db *gorm.DB, bookingID uint, newStatus string) (*models.Booking, error) {
	if !models.IsValidBookingStatus(newStatus) {
		return nil, NewWorkflowError(CodeInvalidStatus,
			fmt.Sprintf("unknown booking status %q", newStatus))
	}
	if newStatus == models.BookingCompleted {
		return nil, NewWorkflowError(CodeInvalidTransition,
			"bookings are completed through invoice finalization only")
	}

	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "booking not found")
			}
			return err
		}
		if !booking.CanTransitionTo(newStatus) {
			return NewWorkflowError(CodeInvalidTransition,
				fmt.Sprintf("cannot move booking from %q to %q", booking.Status, newStatus))
		}

		updates := map[string]interface{}{"status": newStatus}

		switch newStatus {
		case models.BookingArrived:
			now := timeNow()
			updates["arrived_at"] = &now
			if err := ensureJobcard(tx, &booking, models.JobcardOpen); err != nil {
				return err
			}
		case models.BookingInProgress:
			// Defensive: a booking moved straight to in_progress still gets a
			// jobcard, staffed with any available mechanic.
			if err := ensureJobcardInProgress(tx, &booking); err != nil {
				return err
			}
		case models.BookingCancelled:
			if err := cancelJobcardForBooking(tx, booking.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(&booking).Updates(updates).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ensureJobcard creates the booking's jobcard if none exists. The unique
// index on booking_id makes creation idempotent under concurrent arrivals.
func ensureJobcard(tx *gorm.DB, booking *models.Booking, status string) error {
	var existing models.Jobcard
	err := tx.Where("booking_id = ?", booking.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	jobcard := models.Jobcard{
		BookingID:      booking.ID,
		Status:         status,
		ServiceDetails: booking.ServiceTypes,
	}
	if err := tx.Create(&jobcard).Error; err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return err
	}
	return nil
}

// ensureJobcardInProgress covers the defensive in_progress path: if the
// booking has no jobcard yet, create one in_progress and staff it with an
// arbitrarily-selected available mechanic.
func ensureJobcardInProgress(tx *gorm.DB, booking *models.Booking) error {
	var existing models.Jobcard
	err := tx.Where("booking_id = ?", booking.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var mech models.Mechanic
	if err := tx.Where("is_active = ? AND availability = ?", true, models.MechanicAvailable).
		Order("id").First(&mech).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewWorkflowError(CodeMechanicUnavailable, "no available mechanic to open the jobcard")
		}
		return err
	}

	jobcard := models.Jobcard{
		BookingID:      booking.ID,
		Status:         models.JobcardInProgress,
		ServiceDetails: booking.ServiceTypes,
	}
	if err := tx.Create(&jobcard).Error; err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return err
	}

	assignment := models.MechanicAssignment{
		JobcardID:  jobcard.ID,
		MechanicID: mech.ID,
		AssignedAt: timeNow(),
	}
	if err := tx.Create(&assignment).Error; err != nil {
		return err
	}
	return tx.Model(&mech).Update("availability", models.MechanicBusy).Error
}

// cancelJobcardForBooking cancels a non-terminal jobcard alongside its
// booking and releases mechanics with no other active work.
func cancelJobcardForBooking(tx *gorm.DB, bookingID uint) error {
	var jobcard models.Jobcard
	err := tx.Where("booking_id = ?", bookingID).First(&jobcard).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if !jobcard.IsActive() {
		return nil
	}

	var assignments []models.MechanicAssignment
	if err := tx.Where("jobcard_id = ?", jobcard.ID).Find(&assignments).Error; err != nil {
		return err
	}
	if err := tx.Model(&jobcard).Update("status", models.JobcardCanceled).Error; err != nil {
		return err
	}
	for _, a := range assignments {
		if _, err := releaseMechanicIfIdle(tx, a.MechanicID); err != nil {
			return err
		}
	}
	return nil
}

// GetBooking loads a booking with its customer.
func GetBooking(db *gorm.DB, bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := db.Preload("Customer").First(&booking, bookingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewWorkflowError(CodeNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}
