package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// maxSKUSuffix bounds the numeric suffix probing when a generated SKU is
// already taken
const maxSKUSuffix = 100

// ProductService handles product catalog operations. Billing only reads
// products; all catalog mutations go through here.
type ProductService struct {
	productRepo    catalog.ProductRepository
	stockRepo      stock.StockRecordRepository
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, stockRepo stock.StockRecordRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
	}
}

// SetEventPublisher sets the event publisher for post-commit fan-out
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a product with a generated SKU. A positive initial stock
// goes through the receipt path so the counters start consistent; zero
// initial stock still creates the empty stock record.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	sku, err := s.uniqueSKU(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(sku, req.Name, req.UnitPrice)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	if req.InitialStock > 0 {
		if err := s.stockRepo.ApplyReceipt(ctx, product.ID, req.InitialStock); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.stockRepo.GetOrCreate(ctx, product.ID); err != nil {
			return nil, err
		}
	}

	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, normalizeSKU(sku))
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves products with optional search and status filtering
func (s *ProductService) List(ctx context.Context, query ListProductsQuery) (*shared.Paginated[ProductResponse], error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 50
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Search:   strings.TrimSpace(query.Search),
		Filters:  make(map[string]interface{}),
	}
	if query.Status != "" {
		filter.Filters["status"] = query.Status
	}

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}

	result := shared.NewPaginated(items, total, query.Page, query.PageSize)
	return &result, nil
}

// Update renames a product and/or changes its unit price. The SKU never
// changes; invoice items carry their own snapshots anyway.
func (s *ProductService) Update(ctx context.Context, sku string, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, normalizeSKU(sku))
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := product.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		if err := product.ChangeUnitPrice(*req.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Activate re-enables a product for sale and receipt
func (s *ProductService) Activate(ctx context.Context, sku string) (*ProductResponse, error) {
	return s.changeStatus(ctx, sku, (*catalog.Product).Activate)
}

// Deactivate takes a product off sale; checkout and receipt reject it
func (s *ProductService) Deactivate(ctx context.Context, sku string) (*ProductResponse, error) {
	return s.changeStatus(ctx, sku, (*catalog.Product).Deactivate)
}

func (s *ProductService) changeStatus(ctx context.Context, sku string, transition func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, normalizeSKU(sku))
	if err != nil {
		return nil, err
	}

	if err := transition(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// uniqueSKU generates a SKU from the name and probes numeric suffixes until
// it finds a free one
func (s *ProductService) uniqueSKU(ctx context.Context, name string) (string, error) {
	base := catalog.GenerateSKU(name)

	candidate := base
	for i := 2; i <= maxSKUSuffix; i++ {
		exists, err := s.productRepo.ExistsBySKU(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = suffixSKU(base, i)
	}

	return "", shared.NewDomainError("SKU_EXHAUSTED", fmt.Sprintf("Could not derive a unique SKU from %q", name))
}

// suffixSKU appends -n, trimming the base so the result stays within the
// SKU length cap
func suffixSKU(base string, n int) string {
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > catalog.MaxSKULength {
		base = base[:catalog.MaxSKULength-len(suffix)]
	}
	return base + suffix
}

func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	product.ClearDomainEvents()
}

func normalizeSKU(sku string) string {
	return strings.TrimSpace(strings.ToUpper(sku))
}
