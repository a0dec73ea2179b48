package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pos/backend/internal/domain/billing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the Postgres error code for unique constraint violations
const pgUniqueViolation = "23505"

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by its human-facing number, with items
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber int64) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "invoice_number = ?", invoiceNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumberForUpdate finds an invoice by number and locks the row until
// the surrounding transaction ends. Items are loaded without a lock; they
// are immutable after checkout.
func (r *GormInvoiceRepository) FindByNumberForUpdate(ctx context.Context, invoiceNumber int64) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "invoice_number = ?", invoiceNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("created_at ASC").
		Find(&invoice.Items).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByIdempotencyKey finds the invoice committed under the given key
func (r *GormInvoiceRepository) FindByIdempotencyKey(ctx context.Context, key string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// NextInvoiceNumber computes max(invoice_number)+1, starting at
// FirstInvoiceNumber on an empty table. The unique constraint on
// invoice_number is the real collision guard; callers treat
// ErrDuplicateInvoiceNumber from Create as "recompute and retry".
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	var current int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Select("COALESCE(MAX(invoice_number), ?)", billing.FirstInvoiceNumber-1).
		Scan(&current).Error; err != nil {
		return 0, err
	}
	return current + 1, nil
}

// Create inserts the invoice row, translating unique violations into the
// domain sentinels the orchestrator branches on
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(invoice).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// AddItem inserts one invoice line
func (r *GormInvoiceRepository) AddItem(ctx context.Context, item *billing.InvoiceItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update persists mutable invoice fields with an optimistic version check.
// The version bump is owned here; the aggregate is advanced on success.
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version).
		Updates(map[string]interface{}{
			"subtotal":      invoice.Subtotal,
			"grand_total":   invoice.GrandTotal,
			"status":        invoice.Status,
			"cancel_reason": invoice.CancelReason,
			"cancelled_at":  invoice.CancelledAt,
			"version":       invoice.Version + 1,
			"updated_at":    invoice.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	invoice.IncrementVersion()
	return nil
}

// FindAll finds invoices matching the filter, items preloaded
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(r.db.WithContext(ctx).Model(&billing.Invoice{}).Preload("Items"), filter)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&billing.Invoice{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// statsRow is the scan target for the stats aggregation
type statsRow struct {
	TotalInvoices     int64
	PaidInvoices      int64
	CancelledInvoices int64
	PaidRevenue       decimal.Decimal
	CancelledAmount   decimal.Decimal
}

// AggregateStats aggregates counts and revenue within the query bounds.
// One aggregation statement; nil bounds mean all-time.
func (r *GormInvoiceRepository) AggregateStats(ctx context.Context, query billing.StatsQuery) (*billing.Stats, error) {
	q := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Select(strings.Join([]string{
			"COUNT(*) AS total_invoices",
			"COALESCE(SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END), 0) AS paid_invoices",
			"COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0) AS cancelled_invoices",
			"COALESCE(SUM(CASE WHEN status = 'paid' THEN grand_total ELSE 0 END), 0) AS paid_revenue",
			"COALESCE(SUM(CASE WHEN status = 'cancelled' THEN grand_total ELSE 0 END), 0) AS cancelled_amount",
		}, ", "))

	if query.From != nil {
		q = q.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("created_at <= ?", *query.To)
	}

	var row statsRow
	if err := q.Scan(&row).Error; err != nil {
		return nil, err
	}

	return &billing.Stats{
		TotalInvoices:     row.TotalInvoices,
		PaidInvoices:      row.PaidInvoices,
		CancelledInvoices: row.CancelledInvoices,
		PaidRevenue:       row.PaidRevenue,
		CancelledAmount:   row.CancelledAmount,
	}, nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "invoice_number")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))
}

// applyFilterWithoutPagination applies field filters only
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// translateUniqueViolation maps Postgres unique violations on the invoice
// table to their domain sentinels. The string fallback covers drivers that
// do not surface *pgconn.PgError (the sqlite test dialector).
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "idempotency_key"):
			return shared.ErrDuplicateIdempotencyKey
		case strings.Contains(pgErr.ConstraintName, "number"):
			return shared.ErrDuplicateInvoiceNumber
		}
		return err
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		switch {
		case strings.Contains(err.Error(), "idempotency_key"):
			return shared.ErrDuplicateIdempotencyKey
		case strings.Contains(err.Error(), "invoice_number"):
			return shared.ErrDuplicateInvoiceNumber
		}
	}

	return err
}
