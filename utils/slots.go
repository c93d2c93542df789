package utils

import (
	"fmt"
	"time"
)

// DateLayout is the shop-local calendar date format used on bookings.
const DateLayout = "2006-01-02"

// TimeSlots are the 8 fixed daily windows a booking can occupy. Each slot
// is an exclusivity resource: at most one non-cancelled booking per
// (date, slot).
var TimeSlots = []string{
	"07:30 AM - 09:00 AM",
	"09:00 AM - 10:30 AM",
	"10:30 AM - 12:00 PM",
	"12:00 PM - 01:30 PM",
	"01:30 PM - 03:00 PM",
	"03:00 PM - 04:30 PM",
	"04:30 PM - 06:00 PM",
	"06:00 PM - 07:30 PM",
}

// IsValidTimeSlot checks a slot string against the canonical slot table.
func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// ParseBookingDate parses a YYYY-MM-DD date string in the given location.
func ParseBookingDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: must be YYYY-MM-DD", date)
	}
	return t, nil
}

// ShopLocation resolves a timezone name, falling back to UTC if the name
// is unknown so a bad config value cannot take the booking flow down.
func ShopLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
