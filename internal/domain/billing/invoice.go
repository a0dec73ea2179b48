package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FirstInvoiceNumber is the number assigned to the first invoice ever created
const FirstInvoiceNumber int64 = 1001

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// The only transition is paid -> cancelled; cancelled is terminal.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return s == InvoiceStatusPaid && target == InvoiceStatusCancelled
}

// InvoiceItem is one sold line within an invoice. SKU, product name, and
// unit price are snapshotted at sale time, so later product renames or price
// changes never rewrite billing history. Items survive cancellation.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_invoice_items_invoice"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	SKU         string          `gorm:"type:varchar(20);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Invoice is the aggregate root for a completed sale. Identity is a UUID
// plus the human-facing sequential invoice number. At most one invoice ever
// exists per idempotency key; the key's uniqueness is enforced by the store.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber  int64           `gorm:"not null;uniqueIndex:idx_invoices_number"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PaymentMethod  string          `gorm:"type:varchar(50);not null"`
	IdempotencyKey string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_invoices_idempotency_key"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null;default:'paid'"`
	CancelReason   string          `gorm:"type:varchar(500)"`
	CancelledAt    *time.Time      `gorm:""`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new paid invoice with no lines yet. The caller adds
// the lines and then seals the totals inside the same transaction that
// persists the invoice.
func NewInvoice(invoiceNumber int64, paymentMethod, idempotencyKey string) (*Invoice, error) {
	if invoiceNumber < FirstInvoiceNumber {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", fmt.Sprintf("Invoice number must be at least %d", FirstInvoiceNumber))
	}
	if paymentMethod == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is required")
	}
	if idempotencyKey == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Idempotency key is required")
	}
	if len(idempotencyKey) > 100 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Idempotency key cannot exceed 100 characters")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		Subtotal:          decimal.Zero,
		GrandTotal:        decimal.Zero,
		PaymentMethod:     paymentMethod,
		IdempotencyKey:    idempotencyKey,
		Status:            InvoiceStatusPaid,
		Items:             make([]InvoiceItem, 0),
	}, nil
}

// AddLine appends a sold line, snapshotting the product's SKU, name, and
// current unit price, and recalculates the running totals
func (inv *Invoice) AddLine(productID uuid.UUID, sku, productName string, quantity int64, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	item := InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   inv.ID,
		ProductID:   productID,
		SKU:         sku,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(quantity)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	inv.Items = append(inv.Items, item)
	inv.recalculateTotals()
	inv.UpdatedAt = now

	return &inv.Items[len(inv.Items)-1], nil
}

// Finalize seals the invoice totals and emits the created event. It must be
// called exactly once, after all lines have been added.
func (inv *Invoice) Finalize() error {
	if len(inv.Items) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "Invoice must have at least one line")
	}

	inv.recalculateTotals()
	inv.UpdatedAt = time.Now()
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return nil
}

// Cancel transitions a paid invoice to cancelled. Stock restoration is the
// application layer's job, inside the same transaction that persists this
// transition. Items and amounts are preserved as history.
func (inv *Invoice) Cancel(reason string) error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.ErrAlreadyCancelled
	}
	if !inv.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	if len(reason) > 500 {
		return shared.NewDomainError("VALIDATION_ERROR", "Cancel reason cannot exceed 500 characters")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelReason = reason
	inv.CancelledAt = &now
	inv.UpdatedAt = now

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, reason))

	return nil
}

// recalculateTotals recomputes subtotal and grand total from the lines.
// There is no tax or discount layer, so the two are always equal.
func (inv *Invoice) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	inv.Subtotal = subtotal
	inv.GrandTotal = subtotal
}
