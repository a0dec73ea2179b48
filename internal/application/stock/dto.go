package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/stock"
)

// ReceiveStockRequest represents a goods receipt (GRN) for one product
type ReceiveStockRequest struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int64  `json:"qty" binding:"required,gt=0"`
}

// AvailabilityItemInput is one requested line of an availability check
type AvailabilityItemInput struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int64  `json:"qty" binding:"required,gt=0"`
}

// CheckAvailabilityRequest represents an advisory availability check
type CheckAvailabilityRequest struct {
	Items []AvailabilityItemInput `json:"items" binding:"required,min=1,dive"`
}

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ProductID      uuid.UUID  `json:"product_id"`
	SKU            string     `json:"sku"`
	ProductName    string     `json:"product_name"`
	Quantity       int64      `json:"quantity"`
	ReceivedTotal  int64      `json:"received_total"`
	SoldTotal      int64      `json:"sold_total"`
	LastReceivedAt *time.Time `json:"last_received_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToStockRecordResponse converts a stock record plus its product identity
func ToStockRecordResponse(record *stock.StockRecord, sku, productName string) StockRecordResponse {
	return StockRecordResponse{
		ProductID:      record.ProductID,
		SKU:            sku,
		ProductName:    productName,
		Quantity:       record.Quantity,
		ReceivedTotal:  record.ReceivedTotal,
		SoldTotal:      record.SoldTotal,
		LastReceivedAt: record.LastReceivedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}
