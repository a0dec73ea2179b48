package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product.
// The SKU is generated server-side from the name; clients never supply one.
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	InitialStock int64           `json:"initial_stock" binding:"gte=0"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged; the SKU is immutable.
type UpdateProductRequest struct {
	Name      *string          `json:"name" binding:"omitempty,min=1,max=200"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// ListProductsQuery filters the product list
type ListProductsQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"limit"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID             `json:"id"`
	SKU       string                `json:"sku"`
	Name      string                `json:"name"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	Status    catalog.ProductStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ToProductResponse converts a product aggregate to its response DTO
func ToProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}
