package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
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

// NewDomainErrorWithDetails creates a new domain error carrying structured details
func NewDomainErrorWithDetails(code, message string, details interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInactiveProduct     = NewDomainError("INACTIVE_PRODUCT", "Product is not active")
	ErrInvalidQuantity     = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrAlreadyCancelled    = NewDomainError("ALREADY_CANCELLED", "Invoice is already cancelled")

	// Unique-violation sentinels surfaced by the invoice repository so the
	// checkout orchestrator can tell an idempotency replay from a sequencer
	// collision
	ErrDuplicateIdempotencyKey = NewDomainError("DUPLICATE_IDEMPOTENCY_KEY", "An invoice already exists for this idempotency key")
	ErrDuplicateInvoiceNumber  = NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number was claimed by a concurrent checkout")
)
