package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/config"
	"github.com/garagedesk/garagedesk-api/models"
	"github.com/garagedesk/garagedesk-api/utils"
)

// Night hours: requests between 22:00 and 06:00 shop-local pay a 1.5x
// callout multiplier.
const (
	nightHourStart = 22
	nightHourEnd   = 6
)

// CreateBreakdownInput carries a roadside emergency request.
type CreateBreakdownInput struct {
	VehicleNumber string
	Brand         string
	Model         string
	EmergencyType string
	Latitude      float64
	Longitude     float64
	Description   string
}

// CreateBreakdownRequest records a roadside request with a distance and
// price estimate. The estimate is base fee + per-km rate over the
// great-circle distance from the shop, rounded to the nearest 100.
func CreateBreakdownRequest(db *gorm.DB, customerID uint, in CreateBreakdownInput) (*models.BreakdownRequest, error) {
	if in.VehicleNumber == "" {
		return nil, NewWorkflowError(CodeValidationError, "vehicle number is required")
	}
	if in.EmergencyType == "" {
		return nil, NewWorkflowError(CodeValidationError, "emergency type is required")
	}
	if !utils.IsValidCoordinate(in.Latitude, in.Longitude) {
		return nil, NewWorkflowError(CodeValidationError, "coordinates are out of range")
	}

	cfg := config.GetConfig()
	distance := utils.Haversine(cfg.ShopLatitude, cfg.ShopLongitude, in.Latitude, in.Longitude)

	request := &models.BreakdownRequest{
		CustomerID:    customerID,
		VehicleNumber: in.VehicleNumber,
		Brand:         in.Brand,
		Model:         in.Model,
		EmergencyType: in.EmergencyType,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		DistanceKM:    decimal.NewFromFloat(distance).Round(2).InexactFloat64(),
		EstimatedCost: estimateBreakdownCost(distance),
		Description:   in.Description,
		Status:        models.BreakdownPending,
	}
	if err := db.Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// estimateBreakdownCost derives the callout estimate from the distance and
// the configured rates.
func estimateBreakdownCost(distanceKM float64) float64 {
	cfg := config.GetConfig()
	loc := utils.ShopLocation(cfg.ShopTimezone)

	estimate := decimal.NewFromFloat(cfg.BreakdownBaseFee).
		Add(decimal.NewFromFloat(cfg.BreakdownPerKmRate).Mul(decimal.NewFromFloat(distanceKM)))

	hour := timeNow().In(loc).Hour()
	if hour >= nightHourStart || hour < nightHourEnd {
		estimate = estimate.Mul(decimal.NewFromFloat(1.5))
	}

	// Round to the nearest 100 currency units.
	hundred := decimal.NewFromInt(100)
	return estimate.Div(hundred).Round(0).Mul(hundred).InexactFloat64()
}

// ListBreakdownRequests returns a customer's own requests, newest first.
func ListBreakdownRequests(db *gorm.DB, customerID uint) ([]models.BreakdownRequest, error) {
	var requests []models.BreakdownRequest
	if err := db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
