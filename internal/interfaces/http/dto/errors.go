package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStorage is used when the record store cannot be read or written
	ErrCodeStorage = "ERR_STORAGE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeStaleReference is used when an operation targets a row another
	// operator already deleted
	ErrCodeStaleReference = "ERR_STALE_REFERENCE"
)

// Checkpoint error codes
const (
	// ErrCodeDuplicateScan is used when a tracking number is scanned twice
	ErrCodeDuplicateScan = "ERR_DUPLICATE_SCAN"
	// ErrCodeAlreadyVerified is used when a shipment is verified twice
	ErrCodeAlreadyVerified = "ERR_ALREADY_VERIFIED"
	// ErrCodeEmptyUndoStack is used when there is no deletion to undo
	ErrCodeEmptyUndoStack = "ERR_EMPTY_UNDO_STACK"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInsufficientStock is used when stock is insufficient
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeStorage:  http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeAlreadyExists:  http.StatusConflict,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeStaleReference: http.StatusConflict,

	// Checkpoint errors -> 409 Conflict
	ErrCodeDuplicateScan:   http.StatusConflict,
	ErrCodeAlreadyVerified: http.StatusConflict,
	ErrCodeEmptyUndoStack:  http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the wire format
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_STATE":           ErrCodeInvalidState,
	"DUPLICATE_SCAN":          ErrCodeDuplicateScan,
	"ALREADY_VERIFIED":        ErrCodeAlreadyVerified,
	"STALE_REFERENCE":         ErrCodeStaleReference,
	"INSUFFICIENT_STOCK":      ErrCodeInsufficientStock,
	"EMPTY_UNDO_STACK":        ErrCodeEmptyUndoStack,
	"STORAGE":                 ErrCodeStorage,
	"INVALID_TRACKING_NUMBER": ErrCodeValidation,
	"INVALID_OPERATOR":        ErrCodeValidation,
	"INVALID_FIELD":           ErrCodeValidation,
	"INVALID_LINE":            ErrCodeValidation,
	"INVALID_ENTRY":           ErrCodeValidation,
	"INVALID_QUANTITY":        ErrCodeValidation,
	"NOT_VERIFIED":            ErrCodeInvalidState,
	"ALREADY_COMPLETED":       ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code to the wire format.
// If the code is already in the wire format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return code
}
