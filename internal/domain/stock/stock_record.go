package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// StockRecord tracks on-hand inventory for a single product.
// It is the aggregate root for stock operations. One record exists per
// product; it is created lazily on the first receipt or explicitly with
// quantity 0 at product creation.
//
// Quantity must never be observed negative. Mutations are applied by the
// repository as single-statement relative deltas (never read-modify-write in
// the service layer), with the checkout path additionally holding a row lock.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_records_product"`
	Quantity       int64      `gorm:"not null;default:0"`
	ReceivedTotal  int64      `gorm:"not null;default:0"`
	SoldTotal      int64      `gorm:"not null;default:0"`
	LastReceivedAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates an empty stock record for a product
func NewStockRecord(productID uuid.UUID) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		Quantity:          0,
		ReceivedTotal:     0,
		SoldTotal:         0,
	}, nil
}

// CanFulfill returns true if the on-hand quantity covers the requested quantity
func (r *StockRecord) CanFulfill(quantity int64) bool {
	return r.Quantity >= quantity
}

// ValidateQuantity rejects non-positive movement quantities
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	return nil
}

// RecordWithProduct pairs a stock record with its product's business
// identity for read surfaces
type RecordWithProduct struct {
	Record      StockRecord
	SKU         string
	ProductName string
}

// Demand is one requested line of an availability check
type Demand struct {
	SKU      string
	Quantity int64
}

// Shortfall reports a SKU whose requested quantity exceeds the on-hand quantity.
// A missing stock record counts as zero available.
type Shortfall struct {
	SKU       string `json:"sku"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// AvailabilityResult is the outcome of an advisory availability check.
// It is a fast-fail snapshot only; the checkout transaction re-enforces
// availability with row locks and guarded decrements.
type AvailabilityResult struct {
	AllAvailable bool        `json:"all_available"`
	Shortfalls   []Shortfall `json:"shortfalls,omitempty"`
}
