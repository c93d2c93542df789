package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garagedesk/garagedesk-api/models"
)

func validBreakdownInput() CreateBreakdownInput {
	return CreateBreakdownInput{
		VehicleNumber: "KA01AB1234",
		Brand:         "Maruti",
		Model:         "Swift",
		EmergencyType: "flat_tire",
		Latitude:      12.9716,
		Longitude:     77.5946,
		Description:   "Rear left flat on the highway shoulder",
	}
}

func TestCreateBreakdownRequestValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)

	tests := []struct {
		name   string
		mutate func(in *CreateBreakdownInput)
	}{
		{"Missing vehicle number", func(in *CreateBreakdownInput) { in.VehicleNumber = "" }},
		{"Missing emergency type", func(in *CreateBreakdownInput) { in.EmergencyType = "" }},
		{"Latitude out of range", func(in *CreateBreakdownInput) { in.Latitude = 95 }},
		{"Longitude out of range", func(in *CreateBreakdownInput) { in.Longitude = -190 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validBreakdownInput()
			tt.mutate(&in)
			_, err := CreateBreakdownRequest(db, customer.ID, in)
			we, ok := AsWorkflowError(err)
			if assert.True(t, ok) {
				assert.Equal(t, CodeValidationError, we.Code)
			}
		})
	}
}

func TestCreateBreakdownRequestDaytimeEstimate(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	timeNow = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}

	// 0.1 degrees of latitude north of the shop is about 11.12 km.
	in := validBreakdownInput()
	in.Latitude = 13.0716

	request, err := CreateBreakdownRequest(db, customer.ID, in)
	assert.NoError(t, err)
	assert.InDelta(t, 11.12, request.DistanceKM, 0.02)

	// 300 base + 50/km * 11.12 km = 855.97, rounded to the nearest 100.
	assert.Equal(t, 900.0, request.EstimatedCost)
}

func TestCreateBreakdownRequestNightSurcharge(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	timeNow = func() time.Time {
		return time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	}

	in := validBreakdownInput()
	in.Latitude = 13.0716

	request, err := CreateBreakdownRequest(db, customer.ID, in)
	assert.NoError(t, err)

	// Daytime estimate of 855.97 at 1.5x = 1283.96, rounded to 1300.
	assert.Equal(t, 1300.0, request.EstimatedCost)
}

func TestCreateBreakdownRequestEarlyMorningCountsAsNight(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	timeNow = func() time.Time {
		return time.Date(2026, 9, 1, 5, 59, 0, 0, time.UTC)
	}

	// At the shop itself the distance is zero: 300 at 1.5x = 450, which
	// rounds up to 500.
	request, err := CreateBreakdownRequest(db, customer.ID, validBreakdownInput())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, request.DistanceKM)
	assert.Equal(t, 500.0, request.EstimatedCost)
}

func TestListBreakdownRequests(t *testing.T) {
	db := setupServiceTestDB(t)
	customer := createTestCustomer(t, db)
	other := &models.User{
		Name:         "Vikram Singh",
		Email:        "vikram@example.com",
		Phone:        "9123456789",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
	}
	assert.NoError(t, db.Create(other).Error)

	first, err := CreateBreakdownRequest(db, customer.ID, validBreakdownInput())
	assert.NoError(t, err)
	in := validBreakdownInput()
	in.EmergencyType = "battery_dead"
	second, err := CreateBreakdownRequest(db, customer.ID, in)
	assert.NoError(t, err)
	_, err = CreateBreakdownRequest(db, other.ID, validBreakdownInput())
	assert.NoError(t, err)

	requests, err := ListBreakdownRequests(db, customer.ID)
	assert.NoError(t, err)
	if assert.Len(t, requests, 2) {
		assert.Equal(t, second.ID, requests[0].ID)
		assert.Equal(t, first.ID, requests[1].ID)
	}
}
