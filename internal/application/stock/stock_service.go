package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// StockService is the stock ledger's application surface. It owns goods
// receipts, advisory availability checks, and the read endpoints. The
// checkout path does not go through this service; it composes the same
// repository inside its own transaction scope.
type StockService struct {
	productRepo    catalog.ProductRepository
	stockRepo      stock.StockRecordRepository
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService
func NewStockService(productRepo catalog.ProductRepository, stockRepo stock.StockRecordRepository) *StockService {
	return &StockService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
	}
}

// SetEventPublisher sets the event publisher for post-commit fan-out
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Receive books a goods receipt: quantity and received_total grow by qty,
// last_received_at is stamped, and the record is created if this is the
// product's first receipt
func (s *StockService) Receive(ctx context.Context, req ReceiveStockRequest) (*StockRecordResponse, error) {
	if err := stock.ValidateQuantity(req.Quantity); err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(strings.ToUpper(req.SKU))
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorWithDetails("PRODUCT_NOT_FOUND",
				fmt.Sprintf("Product %s not found", sku),
				map[string]string{"sku": sku})
		}
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.NewDomainErrorWithDetails("INACTIVE_PRODUCT",
			fmt.Sprintf("Product %s is not active", sku),
			map[string]string{"sku": sku})
	}

	if err := s.stockRepo.ApplyReceipt(ctx, product.ID, req.Quantity); err != nil {
		return nil, err
	}

	record, err := s.stockRepo.FindByProductID(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	s.publishReceived(ctx, record, sku, req.Quantity)

	resp := ToStockRecordResponse(record, product.SKU, product.Name)
	return &resp, nil
}

// CheckAvailability runs the advisory availability check for the given
// lines. The snapshot can go stale immediately; callers must not treat a
// pass as a reservation.
func (s *StockService) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*stock.AvailabilityResult, error) {
	demands := make([]stock.Demand, len(req.Items))
	for i, item := range req.Items {
		if err := stock.ValidateQuantity(item.Quantity); err != nil {
			return nil, err
		}
		demands[i] = stock.Demand{
			SKU:      strings.TrimSpace(strings.ToUpper(item.SKU)),
			Quantity: item.Quantity,
		}
	}

	return s.stockRepo.CheckAvailability(ctx, demands)
}

// GetBySKU returns the stock record for a product. A product that exists
// but has no record yet reports zeros; an unknown SKU is NotFound.
func (s *StockService) GetBySKU(ctx context.Context, sku string) (*StockRecordResponse, error) {
	sku = strings.TrimSpace(strings.ToUpper(sku))
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	record, err := s.stockRepo.FindByProductID(ctx, product.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		empty, newErr := stock.NewStockRecord(product.ID)
		if newErr != nil {
			return nil, newErr
		}
		record = empty
	}

	resp := ToStockRecordResponse(record, product.SKU, product.Name)
	return &resp, nil
}

// List returns stock records joined with product identity, paginated
func (s *StockService) List(ctx context.Context, page, pageSize int) (*shared.Paginated[StockRecordResponse], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "updated_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}

	rows, err := s.stockRepo.FindAllWithProduct(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.stockRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]StockRecordResponse, len(rows))
	for i := range rows {
		items[i] = ToStockRecordResponse(&rows[i].Record, rows[i].SKU, rows[i].ProductName)
	}

	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

func (s *StockService) publishReceived(ctx context.Context, record *stock.StockRecord, sku string, quantity int64) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, stock.NewStockReceivedEvent(record, sku, quantity))
}
