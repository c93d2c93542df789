package services

import (
	"fmt"
	"sync"
)

// MockDocumentStore is an in-memory document store for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string][]byte
	FailWith  error
}

// NewMockDocumentStore creates a new mock document store
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global document store instance
func (m *MockDocumentStore) SetAsMockForTesting() {
	SetDocumentStore(m)
}

// ArchiveInvoice stores the document in memory
func (m *MockDocumentStore) ArchiveInvoice(invoiceNumber string, content []byte) (string, error) {
	if m.FailWith != nil {
		return "", m.FailWith
	}
	key := fmt.Sprintf("invoices/%s.html", invoiceNumber)
	m.mu.Lock()
	m.documents[key] = append([]byte(nil), content...)
	m.mu.Unlock()
	return key, nil
}

// GetPresignedURL returns a fake URL for a stored document
func (m *MockDocumentStore) GetPresignedURL(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.documents[key]; !ok {
		return "", fmt.Errorf("document not found: %s", key)
	}
	return "https://mock-bucket.s3.amazonaws.com/" + key, nil
}

// Document returns the stored content for a key
func (m *MockDocumentStore) Document(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[key]
	return doc, ok
}
