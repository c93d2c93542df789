package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/services"
)

// setupControllerTest wires an in-memory database into the global config the
// controllers read from and returns it.
func setupControllerTest(t *testing.T) *gorm.DB {
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
		GoEnv:             "test",
		JWTSecret:         "test-secret",
		JWTExpiryHours:    1,
		ShopTimezone:      "UTC",
		BookingDailyLimit: 8,
	})
	t.Cleanup(func() {
		config.SetConfig(nil)
		config.SetDB(nil)
	})

	services.NewMockInvoiceRenderer().SetAsMockForTesting()
	services.NewMockNotifier().SetAsMockForTesting()
	services.SetDocumentStore(nil)

	return db
}

// mockAuth injects an authenticated identity, bypassing JWT parsing.
func mockAuth(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", w.Body.String(), err)
	}
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no error object: %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Asha Rao",
		Email:        email,
		Phone:        "9876543210",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}
	return user
}

func bookingPayload(date, slot string) gin.H {
	return gin.H{
		"phone":          "9876543210",
		"vehicle_number": "KA01AB1234",
		"brand":          "Maruti",
		"model":          "Swift",
		"vehicle_type":   "Hatchback",
		"fuel_type":      "Petrol",
		"transmission":   "Manual",
		"year":           2021,
		"service_types":  []string{"General Service"},
		"date":           date,
		"time_slot":      slot,
		"kilometers_run": 43210,
	}
}

func testFutureDate(n int) string {
	return time.Now().UTC().AddDate(0, 0, n).Format("2006-01-02")
}
