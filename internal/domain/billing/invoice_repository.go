package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StatsQuery bounds a stats aggregation on invoice creation time.
// Nil bounds mean all-time.
type StatsQuery struct {
	From *time.Time
	To   *time.Time
}

// Stats aggregates invoice counts and revenue, split by status
type Stats struct {
	TotalInvoices     int64           `json:"total_invoices"`
	PaidInvoices      int64           `json:"paid_invoices"`
	CancelledInvoices int64           `json:"cancelled_invoices"`
	PaidRevenue       decimal.Decimal `json:"paid_revenue"`
	CancelledAmount   decimal.Decimal `json:"cancelled_amount"`
}

// InvoiceRepository defines the interface for invoice persistence.
//
// Create must surface the store's unique constraints as domain errors the
// orchestrator can act on: an idempotency-key collision means a concurrent
// request already committed this logical checkout, an invoice-number
// collision means the sequencer lost a race and the unit of work must be
// retried with a fresh number.
type InvoiceRepository interface {
	// FindByID finds an invoice with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its human-facing number, with items
	FindByNumber(ctx context.Context, invoiceNumber int64) (*Invoice, error)

	// FindByNumberForUpdate finds an invoice by number and locks the row for
	// the remainder of the surrounding transaction
	FindByNumberForUpdate(ctx context.Context, invoiceNumber int64) (*Invoice, error)

	// FindByIdempotencyKey finds the invoice committed under the given key,
	// with items. Returns shared.ErrNotFound when no invoice exists.
	FindByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)

	// NextInvoiceNumber computes max(invoice_number)+1, or FirstInvoiceNumber
	// when no invoices exist. Must be called inside the same transaction as
	// the subsequent Create; the unique constraint on invoice_number is the
	// actual collision guard.
	NextInvoiceNumber(ctx context.Context) (int64, error)

	// Create inserts the invoice row (items are inserted separately as the
	// checkout walks the cart). Returns shared.ErrDuplicateIdempotencyKey or
	// shared.ErrDuplicateInvoiceNumber on the corresponding unique
	// violations, so the orchestrator claims both constraints before any
	// stock is touched.
	Create(ctx context.Context, invoice *Invoice) error

	// AddItem inserts one invoice line
	AddItem(ctx context.Context, item *InvoiceItem) error

	// Update persists mutable invoice fields (totals, status, cancellation
	// metadata) with an optimistic version check. Items are never rewritten.
	Update(ctx context.Context, invoice *Invoice) error

	// FindAll finds invoices matching the filter, items preloaded
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// AggregateStats aggregates counts and revenue within the query bounds
	AggregateStats(ctx context.Context, query StatsQuery) (*Stats, error)
}
