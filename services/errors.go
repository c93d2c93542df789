package services

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Workflow error codes. Controllers map these onto the response envelope;
// HTTPStatus picks the status code.
const (
	CodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	CodeSlotConflict        = "SLOT_CONFLICT"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeMechanicUnavailable = "MECHANIC_UNAVAILABLE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeNoMechanicAssigned  = "NO_MECHANIC_ASSIGNED"
	CodeNotReadyForReview   = "NOT_READY_FOR_REVIEW"
	CodeNotVerified         = "NOT_VERIFIED"
	CodePreconditionFailed  = "PRECONDITION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeValidationError     = "VALIDATION_ERROR"
)

// WorkflowError is a structured workflow failure. Every WorkflowError means
// "nothing changed": validation failures are raised before a transaction
// opens and invariant violations abort the whole transaction.
type WorkflowError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	return e.Code + ": " + e.Message
}

// NewWorkflowError creates a WorkflowError with the given code and message.
func NewWorkflowError(code, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message}
}

// WithDetails attaches structured details (e.g. the full list of short
// parts on INSUFFICIENT_STOCK) and returns the error.
func (e *WorkflowError) WithDetails(details interface{}) *WorkflowError {
	e.Details = details
	return e
}

// AsWorkflowError unwraps err into a *WorkflowError if it is one.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// HTTPStatus maps a workflow error code to an HTTP status code.
func HTTPStatus(code string) int {
	switch code {
	case CodeValidationError, CodeInvalidStatus:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeCapacityExceeded, CodeSlotConflict, CodeInvalidTransition,
		CodeMechanicUnavailable, CodeInsufficientStock, CodeNoMechanicAssigned,
		CodeNotReadyForReview, CodeNotVerified, CodePreconditionFailed:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// isDuplicateKey detects unique-constraint violations across the postgres
// and sqlite drivers. GORM's TranslateError covers postgres; the sqlite
// driver still surfaces the raw constraint message.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
