package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/utils"
)

func TestCreateBooking(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	date := futureDate(3)

	tests := []struct {
		name         string
		mutate       func(in *CreateBookingInput)
		expectedCode string
	}{
		{
			name:   "Successfully create booking",
			mutate: func(in *CreateBookingInput) {},
		},
		{
			name:         "Fail with short phone",
			mutate:       func(in *CreateBookingInput) { in.Phone = "12345"; in.TimeSlot = utils.TimeSlots[1] },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail with non-numeric phone",
			mutate:       func(in *CreateBookingInput) { in.Phone = "98765x3210"; in.TimeSlot = utils.TimeSlots[1] },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail with unknown slot",
			mutate:       func(in *CreateBookingInput) { in.TimeSlot = "08:00 AM - 09:00 AM" },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail with malformed date",
			mutate:       func(in *CreateBookingInput) { in.Date = "01-06-2026"; in.TimeSlot = utils.TimeSlots[1] },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail with past date",
			mutate:       func(in *CreateBookingInput) { in.Date = "2020-01-01"; in.TimeSlot = utils.TimeSlots[1] },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail with no service types",
			mutate:       func(in *CreateBookingInput) { in.ServiceTypes = nil; in.TimeSlot = utils.TimeSlots[1] },
			expectedCode: CodeValidationError,
		},
		{
			name:         "Fail when slot already booked",
			mutate:       func(in *CreateBookingInput) {},
			expectedCode: CodeSlotConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validBookingInput(date, utils.TimeSlots[0])
			tt.mutate(&in)

			booking, err := CreateBooking(db, customer.ID, in)
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				assert.Equal(t, models.BookingPending, booking.Status)
				assert.Equal(t, date, booking.Date)
				return
			}
			assert.Nil(t, booking)
			we, ok := AsWorkflowError(err)
			if assert.True(t, ok, "expected a workflow error, got %v", err) {
				assert.Equal(t, tt.expectedCode, we.Code)
			}
		})
	}
}

func TestCreateBookingDailyLimit(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	date := futureDate(5)

	// Fill all 8 slots for the day.
	for _, slot := range utils.TimeSlots {
		_, err := CreateBooking(db, customer.ID, validBookingInput(date, slot))
		assert.NoError(t, err)
	}

	// A 9th booking has no slot left; the capacity check fires first.
	_, err := CreateBooking(db, customer.ID, validBookingInput(date, utils.TimeSlots[0]))
	we, ok := AsWorkflowError(err)
	if assert.True(t, ok) {
		assert.Equal(t, CodeCapacityExceeded, we.Code)
	}

	// The next day is unaffected.
	_, err = CreateBooking(db, customer.ID, validBookingInput(futureDate(6), utils.TimeSlots[0]))
	assert.NoError(t, err)
}

func TestCreateBookingCancelledSlotReusable(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	date := futureDate(4)

	booking, err := CreateBooking(db, customer.ID, validBookingInput(date, utils.TimeSlots[2]))
	assert.NoError(t, err)

	_, err = UpdateBookingStatus(db, booking.ID, models.BookingCancelled)
	assert.NoError(t, err)

	// A cancelled booking releases its slot.
	_, err = CreateBooking(db, customer.ID, validBookingInput(date, utils.TimeSlots[2]))
	assert.NoError(t, err)
}

func TestGetAvailableSlots(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	date := futureDate(2)

	availability, err := GetAvailableSlots(db, date)
	assert.NoError(t, err)
	assert.Len(t, availability.AvailableSlots, 8)
	assert.Empty(t, availability.BookedSlots)

	_, err = CreateBooking(db, customer.ID, validBookingInput(date, utils.TimeSlots[3]))
	assert.NoError(t, err)

	availability, err = GetAvailableSlots(db, date)
	assert.NoError(t, err)
	assert.Len(t, availability.AvailableSlots, 7)
	assert.Equal(t, []string{utils.TimeSlots[3]}, availability.BookedSlots)
	assert.NotContains(t, availability.AvailableSlots, utils.TimeSlots[3])
}

func TestUpdateBookingStatusArrival(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)

	booking, err := CreateBooking(db, customer.ID, validBookingInput(futureDate(1), utils.TimeSlots[0]))
	assert.NoError(t, err)

	updated, err := UpdateBookingStatus(db, booking.ID, models.BookingArrived)
	assert.NoError(t, err)
	assert.NotNil(t, updated.ArrivedAt)

	var jobcard models.Jobcard
	assert.NoError(t, db.Where("booking_id = ?", booking.ID).First(&jobcard).Error)
	assert.Equal(t, models.JobcardOpen, jobcard.Status)
	assert.Equal(t, models.StringList{"General Service", "Wheel Alignment"}, jobcard.ServiceDetails)

	// Arrival is idempotent on the jobcard: re-running the transition via
	// in_progress must not mint a second jobcard.
	_, err = UpdateBookingStatus(db, booking.ID, models.BookingInProgress)
	assert.NoError(t, err)

	var count int64
	db.Model(&models.Jobcard{}).Where("booking_id = ?", booking.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateBookingStatusInProgressCreatesFallbackJobcard(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	mech := createTestMechanic(t, db, "Suresh", 450)

	booking, err := CreateBooking(db, customer.ID, validBookingInput(futureDate(1), utils.TimeSlots[1]))
	assert.NoError(t, err)

	// Straight to in_progress without an arrival: the defensive path staffs
	// a fresh jobcard with an available mechanic.
	_, err = UpdateBookingStatus(db, booking.ID, models.BookingInProgress)
	assert.NoError(t, err)

	var jobcard models.Jobcard
	assert.NoError(t, db.Where("booking_id = ?", booking.ID).First(&jobcard).Error)
	assert.Equal(t, models.JobcardInProgress, jobcard.Status)

	var assignment models.MechanicAssignment
	assert.NoError(t, db.Where("jobcard_id = ?", jobcard.ID).First(&assignment).Error)
	assert.Equal(t, mech.ID, assignment.MechanicID)

	var reloaded models.Mechanic
	db.First(&reloaded, mech.ID)
	assert.Equal(t, models.MechanicBusy, reloaded.Availability)
}

func TestUpdateBookingStatusRejectsBadTransitions(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)

	booking, err := CreateBooking(db, customer.ID, validBookingInput(futureDate(1), utils.TimeSlots[0]))
	assert.NoError(t, err)

	tests := []struct {
		name         string
		status       string
		expectedCode string
	}{
		{"Unknown status", "shipped", CodeInvalidStatus},
		{"Completed blocked outside finalization", models.BookingCompleted, CodeInvalidTransition},
		{"Verified unreachable from pending", models.BookingVerified, CodeInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UpdateBookingStatus(db, booking.ID, tt.status)
			we, ok := AsWorkflowError(err)
			if assert.True(t, ok) {
				assert.Equal(t, tt.expectedCode, we.Code)
			}
		})
	}

	// The booking is untouched by rejected transitions.
	var reloaded models.Booking
	db.First(&reloaded, booking.ID)
	assert.Equal(t, models.BookingPending, reloaded.Status)
}

func TestUpdateBookingStatusNotFound(t *testing.T) {
	db := setupServiceTestDB(t)

	_, err := UpdateBookingStatus(db, 9999, models.BookingArrived)
	we, ok := AsWorkflowError(err)
	if assert.True(t, ok) {
		assert.Equal(t, CodeNotFound, we.Code)
	}
}

func TestCancelBookingReleasesMechanics(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	mech := createTestMechanic(t, db, "Ravi", 400)

	_, jobcard := arrivedBooking(t, db, customer, 1, utils.TimeSlots[0])
	_, err := AssignMechanics(db, jobcard.ID, []uint{mech.ID})
	assert.NoError(t, err)

	_, err = UpdateBookingStatus(db, jobcard.BookingID, models.BookingCancelled)
	assert.NoError(t, err)

	var reloadedJobcard models.Jobcard
	db.First(&reloadedJobcard, jobcard.ID)
	assert.Equal(t, models.JobcardCanceled, reloadedJobcard.Status)

	var reloadedMech models.Mechanic
	db.First(&reloadedMech, mech.ID)
	assert.Equal(t, models.MechanicAvailable, reloadedMech.Availability)
}
