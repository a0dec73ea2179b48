package billing

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
)

// InvoiceCreatedEvent is published after a checkout commits
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber int64           `json:"invoice_number"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentMethod string          `json:"payment_method"`
	ItemCount     int             `json:"item_count"`
	UnitsSold     int64           `json:"units_sold"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(invoice *Invoice) *InvoiceCreatedEvent {
	var units int64
	for _, item := range invoice.Items {
		units += item.Quantity
	}
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		GrandTotal:      invoice.GrandTotal,
		PaymentMethod:   invoice.PaymentMethod,
		ItemCount:       len(invoice.Items),
		UnitsSold:       units,
	}
}

// InvoiceCancelledEvent is published after a cancellation commits
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber int64           `json:"invoice_number"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Reason        string          `json:"reason,omitempty"`
	UnitsRestored int64           `json:"units_restored"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(invoice *Invoice, reason string) *InvoiceCancelledEvent {
	var units int64
	for _, item := range invoice.Items {
		units += item.Quantity
	}
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, invoice.ID),
		InvoiceID:       invoice.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		GrandTotal:      invoice.GrandTotal,
		Reason:          reason,
		UnitsRestored:   units,
	}
}
