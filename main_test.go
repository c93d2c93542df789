package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/services"
)

// setupAPITest boots the full router against an in-memory database.
func setupAPITest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	config.SetDB(db)

	config.SetConfig(&config.Config{
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
		config.SetDB(nil)
	})

	services.NewMockInvoiceRenderer().SetAsMockForTesting()
	services.NewMockNotifier().SetAsMockForTesting()
	services.SetDocumentStore(nil)

	return setupRouter(), db
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupAPITest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "GarageDesk API is running", body["message"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router, _ := setupAPITest(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/bookings"},
		{http.MethodGet, "/api/v1/bookings"},
		{http.MethodGet, "/api/v1/bookings/my"},
		{http.MethodPatch, "/api/v1/bookings/1/status"},
		{http.MethodGet, "/api/v1/jobcards/1"},
		{http.MethodPost, "/api/v1/jobcards/1/approve"},
		{http.MethodPost, "/api/v1/bookings/1/invoice"},
		{http.MethodPost, "/api/v1/breakdowns"},
		{http.MethodGet, "/api/v1/mechanics"},
		{http.MethodPost, "/api/v1/spare-parts"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPublicSlotLookupNeedsNoAuth(t *testing.T) {
	router, _ := setupAPITest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/availability", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
