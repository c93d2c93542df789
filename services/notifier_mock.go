package services

import (
	"sync"

	"github.com/garagedesk/garagedesk-api/models"
)

// MockNotifier records sends for testing and can simulate failures
type MockNotifier struct {
	mu       sync.Mutex
	Sent     []models.NotificationOutbox
	FailWith error
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetAsMockForTesting sets this mock as the global notifier instance
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

// Send records the entry or returns the configured failure
func (m *MockNotifier) Send(entry *models.NotificationOutbox) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Sent = append(m.Sent, *entry)
	return nil
}

// SentCount returns the number of successful deliveries
func (m *MockNotifier) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
