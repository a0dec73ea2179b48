package stock

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockRecord = "StockRecord"

// Event type constants
const (
	EventTypeStockReceived = "StockReceived"
)

// StockReceivedEvent is published after a goods receipt commits
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	SKU         string    `json:"sku"`
	Quantity    int64     `json:"quantity"`
	NewQuantity int64     `json:"new_quantity"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(record *StockRecord, sku string, quantity int64) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		SKU:             sku,
		Quantity:        quantity,
		NewQuantity:     record.Quantity,
	}
}
