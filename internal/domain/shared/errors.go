package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrDuplicateScan     = NewDomainError("DUPLICATE_SCAN", "Tracking number already scanned")
	ErrAlreadyVerified   = NewDomainError("ALREADY_VERIFIED", "Tracking number already verified")
	ErrStaleReference    = NewDomainError("STALE_REFERENCE", "Row was deleted by another operator")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrEmptyUndoStack    = NewDomainError("EMPTY_UNDO_STACK", "Nothing to undo")
	ErrStorage           = NewDomainError("STORAGE", "Storage read/write failure")
)
