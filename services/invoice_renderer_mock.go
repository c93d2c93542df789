package services

import (
	"fmt"
	"sync"
)

// MockInvoiceRenderer is a deterministic renderer for testing
type MockInvoiceRenderer struct {
	mu          sync.Mutex
	RenderCalls int
	FailWith    error
}

// NewMockInvoiceRenderer creates a new mock renderer
func NewMockInvoiceRenderer() *MockInvoiceRenderer {
	return &MockInvoiceRenderer{}
}

// SetAsMockForTesting sets this mock as the global renderer instance
func (m *MockInvoiceRenderer) SetAsMockForTesting() {
	SetInvoiceRenderer(m)
}

// Render returns a deterministic document derived from the data contract
func (m *MockInvoiceRenderer) Render(data *InvoiceData) (string, error) {
	m.mu.Lock()
	m.RenderCalls++
	m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	return fmt.Sprintf("invoice:%s booking:%d total:%.2f renders:%d",
		data.InvoiceNumber, data.BookingID, data.Pricing.Total, m.RenderCalls), nil
}
