package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockRecordRepository implements StockRecordRepository using GORM.
//
// All quantity mutations are single UPDATE/INSERT statements with relative
// deltas (gorm.Expr), never read-modify-write in Go: concurrent writers on
// the same product row serialize inside the database, and the sale path
// carries its non-negativity guard in the WHERE clause.
type GormStockRecordRepository struct {
	db *gorm.DB
}

// NewGormStockRecordRepository creates a new GormStockRecordRepository
func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

// FindByProductID finds the stock record for a product
func (r *GormStockRecordRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	var record stock.StockRecord
	if err := r.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByProductIDForUpdate finds the stock record and locks the row until
// the surrounding transaction ends
func (r *GormStockRecordRepository) FindByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	var record stock.StockRecord
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetOrCreate returns the stock record for a product, creating an empty one
// if none exists yet. ON CONFLICT DO NOTHING absorbs creation races.
func (r *GormStockRecordRepository) GetOrCreate(ctx context.Context, productID uuid.UUID) (*stock.StockRecord, error) {
	record, err := r.FindByProductID(ctx, productID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	record, err = stock.NewStockRecord(productID)
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).
		Create(record).Error; err != nil {
		return nil, err
	}

	// Lost the creation race: fetch the winner's row
	if record.ID == uuid.Nil {
		return r.FindByProductID(ctx, productID)
	}

	return record, nil
}

// ApplyReceipt atomically adds a goods receipt, creating the record on the
// product's first receipt
func (r *GormStockRecordRepository) ApplyReceipt(ctx context.Context, productID uuid.UUID, quantity int64) error {
	record, err := stock.NewStockRecord(productID)
	if err != nil {
		return err
	}
	now := time.Now()
	record.Quantity = quantity
	record.ReceivedTotal = quantity
	record.LastReceivedAt = &now

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":         gorm.Expr("stock_records.quantity + ?", quantity),
				"received_total":   gorm.Expr("stock_records.received_total + ?", quantity),
				"last_received_at": now,
				"updated_at":       now,
			}),
		}).
		Create(record).Error
}

// ApplySale atomically records a sale. The quantity guard sits in the WHERE
// clause, so a stale availability check can never drive the row negative.
func (r *GormStockRecordRepository) ApplySale(ctx context.Context, productID uuid.UUID, quantity int64) error {
	result := r.db.WithContext(ctx).
		Model(&stock.StockRecord{}).
		Where("product_id = ? AND quantity >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"sold_total": gorm.Expr("sold_total + ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a rejected guard
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&stock.StockRecord{}).
			Where("product_id = ?", productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientStock
	}
	return nil
}

// ApplyRestore atomically reverses a sale after cancellation. The record is
// created if absent; seeding sold_total with the negative delta keeps
// quantity = received_total - sold_total intact even on that defensive path.
func (r *GormStockRecordRepository) ApplyRestore(ctx context.Context, productID uuid.UUID, quantity int64) error {
	record, err := stock.NewStockRecord(productID)
	if err != nil {
		return err
	}
	now := time.Now()
	record.Quantity = quantity
	record.SoldTotal = -quantity

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("stock_records.quantity + ?", quantity),
				"sold_total": gorm.Expr("stock_records.sold_total - ?", quantity),
				"updated_at": now,
			}),
		}).
		Create(record).Error
}

// availabilityRow is the scan target for the availability join
type availabilityRow struct {
	SKU      string
	Quantity int64
}

// CheckAvailability compares requested quantities against current stock
// without locking. Unknown SKUs and products without a stock record both
// count as zero available.
func (r *GormStockRecordRepository) CheckAvailability(ctx context.Context, demands []stock.Demand) (*stock.AvailabilityResult, error) {
	if len(demands) == 0 {
		return &stock.AvailabilityResult{AllAvailable: true}, nil
	}

	skus := make([]string, len(demands))
	for i, demand := range demands {
		skus[i] = demand.SKU
	}

	var rows []availabilityRow
	if err := r.db.WithContext(ctx).
		Model(&stock.StockRecord{}).
		Select("products.sku AS sku, stock_records.quantity AS quantity").
		Joins("JOIN products ON products.id = stock_records.product_id").
		Where("products.sku IN ?", skus).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	available := make(map[string]int64, len(rows))
	for _, row := range rows {
		available[row.SKU] = row.Quantity
	}

	result := &stock.AvailabilityResult{AllAvailable: true}
	for _, demand := range demands {
		onHand := available[demand.SKU]
		if onHand < demand.Quantity {
			result.AllAvailable = false
			result.Shortfalls = append(result.Shortfalls, stock.Shortfall{
				SKU:       demand.SKU,
				Requested: demand.Quantity,
				Available: onHand,
			})
		}
	}
	return result, nil
}

// FindAll finds stock records matching the filter
func (r *GormStockRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]stock.StockRecord, error) {
	var records []stock.StockRecord
	query := r.applyFilter(r.db.WithContext(ctx).Model(&stock.StockRecord{}), filter)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// recordWithProductRow is the scan target for the product join
type recordWithProductRow struct {
	stock.StockRecord
	SKU         string
	ProductName string
}

// FindAllWithProduct finds stock records joined with product identity
func (r *GormStockRecordRepository) FindAllWithProduct(ctx context.Context, filter shared.Filter) ([]stock.RecordWithProduct, error) {
	var rows []recordWithProductRow
	query := r.applyFilter(
		r.db.WithContext(ctx).
			Model(&stock.StockRecord{}).
			Select("stock_records.*, products.sku AS sku, products.name AS product_name").
			Joins("JOIN products ON products.id = stock_records.product_id"),
		filter,
	)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]stock.RecordWithProduct, len(rows))
	for i, row := range rows {
		result[i] = stock.RecordWithProduct{
			Record:      row.StockRecord,
			SKU:         row.SKU,
			ProductName: row.ProductName,
		}
	}
	return result, nil
}

// Count counts stock records matching the filter
func (r *GormStockRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.StockRecord{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetLowStockCount returns the number of active products whose on-hand
// quantity is at or below the threshold. Feeds the periodic business
// metrics collector.
func (r *GormStockRecordRepository) GetLowStockCount(ctx context.Context, threshold int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.StockRecord{}).
		Joins("JOIN products ON products.id = stock_records.product_id").
		Where("products.status = ? AND stock_records.quantity <= ?", catalog.ProductStatusActive, threshold).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormStockRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, StockRecordSortFields, "updated_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(fmt.Sprintf("stock_records.%s %s", orderBy, orderDir))
}
