package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string stored as a JSON text column. Used for the
// service-type lists on bookings and jobcards.
type StringList []string

// Value implements driver.Valuer so GORM can persist the list as JSON text.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner to read the JSON text column back into a slice.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for string list: %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}

// GormDataType tells the migrator to create a text column for StringList.
func (StringList) GormDataType() string {
	return "text"
}
