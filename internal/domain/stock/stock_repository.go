package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// StockRecordRepository defines the interface for stock persistence.
// Implementations must apply quantity mutations as single atomic statements
// with a non-negativity guard, so concurrent writers cannot produce lost
// updates or negative stock.
type StockRecordRepository interface {
	// FindByProductID finds the stock record for a product
	FindByProductID(ctx context.Context, productID uuid.UUID) (*StockRecord, error)

	// FindByProductIDForUpdate finds the stock record and locks the row for
	// the remainder of the surrounding transaction
	FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*StockRecord, error)

	// GetOrCreate returns the stock record for a product, creating an empty
	// one if none exists yet
	GetOrCreate(ctx context.Context, productID uuid.UUID) (*StockRecord, error)

	// ApplyReceipt atomically adds a goods receipt:
	// quantity += qty, received_total += qty, last_received_at = now
	ApplyReceipt(ctx context.Context, productID uuid.UUID, quantity int64) error

	// ApplySale atomically records a sale:
	// quantity -= qty, sold_total += qty, guarded by quantity >= qty.
	// Returns shared.ErrInsufficientStock when the guard rejects the delta
	// and shared.ErrNotFound when no record exists.
	ApplySale(ctx context.Context, productID uuid.UUID, quantity int64) error

	// ApplyRestore atomically reverses a sale after cancellation:
	// quantity += qty, sold_total -= qty
	ApplyRestore(ctx context.Context, productID uuid.UUID, quantity int64) error

	// CheckAvailability compares requested quantities against current stock
	// without locking. Missing records count as zero available.
	CheckAvailability(ctx context.Context, demands []Demand) (*AvailabilityResult, error)

	// FindAll finds stock records matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockRecord, error)

	// FindAllWithProduct finds stock records joined with their product's
	// SKU and name, for read surfaces
	FindAllWithProduct(ctx context.Context, filter shared.Filter) ([]RecordWithProduct, error)

	// Count counts stock records matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
