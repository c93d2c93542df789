package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
)

// setupServiceTestDB opens an in-memory database with the full schema and
// pins a deterministic configuration for the duration of the test.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetConfig(&config.Config{
		DatabaseURL:        "sqlite::memory:",
		GoEnv:              "test",
		JWTSecret:          "test-secret",
		JWTExpiryHours:     1,
		ShopTimezone:       "UTC",
		BookingDailyLimit:  8,
		ShopLatitude:       12.9716,
		ShopLongitude:      77.5946,
		BreakdownBaseFee:   300,
		BreakdownPerKmRate: 50,
	})
	t.Cleanup(func() {
		config.SetConfig(nil)
		timeNow = time.Now
	})

	NewMockInvoiceRenderer().SetAsMockForTesting()
	NewMockNotifier().SetAsMockForTesting()
	SetDocumentStore(nil)

	return db
}

func createTestCustomer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Asha Rao",
		Email:        "asha@example.com",
		Phone:        "9876543210",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}
	return user
}

func createTestMechanic(t *testing.T, db *gorm.DB, name string, rate float64) *models.Mechanic {
	t.Helper()
	mech := &models.Mechanic{
		Name:         name,
		HourlyRate:   rate,
		Availability: models.MechanicAvailable,
		IsActive:     true,
	}
	if err := db.Create(mech).Error; err != nil {
		t.Fatalf("Failed to create mechanic: %v", err)
	}
	return mech
}

func createTestPart(t *testing.T, db *gorm.DB, name, number string, price float64, stock int) *models.SparePart {
	t.Helper()
	part := &models.SparePart{
		Name:          name,
		PartNumber:    number,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("Failed to create spare part: %v", err)
	}
	return part
}

func validBookingInput(date, slot string) CreateBookingInput {
	return CreateBookingInput{
		Phone:         "9876543210",
		VehicleNumber: "KA01AB1234",
		Brand:         "Maruti",
		Model:         "Swift",
		VehicleType:   "Hatchback",
		FuelType:      "Petrol",
		Transmission:  "Manual",
		Year:          2021,
		ServiceTypes:  []string{"General Service", "Wheel Alignment"},
		Date:          date,
		TimeSlot:      slot,
		KilometersRun: 43210,
	}
}

// futureDate returns a date string n days ahead, shop-local.
func futureDate(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02")
}

// arrivedBooking creates a booking and walks it to arrived so a jobcard exists.
func arrivedBooking(t *testing.T, db *gorm.DB, customer *models.User, daysAhead int, slot string) (*models.Booking, *models.Jobcard) {
	t.Helper()
	booking, err := CreateBooking(db, customer.ID, validBookingInput(futureDate(daysAhead), slot))
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if _, err := UpdateBookingStatus(db, booking.ID, models.BookingArrived); err != nil {
		t.Fatalf("Failed to mark booking arrived: %v", err)
	}
	jobcard, err := GetJobcardByBooking(db, booking.ID)
	if err != nil {
		t.Fatalf("Failed to load jobcard: %v", err)
	}
	return booking, jobcard
}
