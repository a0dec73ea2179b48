package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// CheckoutItemInput is one cart line in a checkout request
type CheckoutItemInput struct {
	SKU      string `json:"sku" binding:"required,sku"`
	Quantity int64  `json:"qty" binding:"required,gt=0"`
}

// CheckoutRequest represents a checkout request. The idempotency key comes
// from the Idempotency-Key header, not the body; the handler copies it in
// and the service generates one when it is absent.
type CheckoutRequest struct {
	Items          []CheckoutItemInput `json:"items" binding:"required,min=1,dive"`
	PaymentMethod  string              `json:"payment_method" binding:"required,min=1,max=50"`
	IdempotencyKey string              `json:"-"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	InvoiceNumber  int64                 `json:"invoice_number"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	GrandTotal     decimal.Decimal       `json:"grand_total"`
	PaymentMethod  string                `json:"payment_method"`
	IdempotencyKey string                `json:"idempotency_key"`
	Status         billing.InvoiceStatus `json:"status"`
	CancelReason   string                `json:"cancel_reason,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	Items          []InvoiceItemResponse `json:"items"`
	CreatedAt      time.Time             `json:"created_at"`
}

// CheckoutResponse is the checkout result: the invoice plus whether this
// call created it or replayed an earlier one with the same idempotency key
type CheckoutResponse struct {
	InvoiceResponse
	NewInvoice bool `json:"new_invoice"`
}

// StatsResponse aggregates invoice counts and revenue for a date range
type StatsResponse struct {
	TotalInvoices     int64           `json:"total_invoices"`
	PaidInvoices      int64           `json:"paid_invoices"`
	CancelledInvoices int64           `json:"cancelled_invoices"`
	PaidRevenue       decimal.Decimal `json:"paid_revenue"`
	CancelledAmount   decimal.Decimal `json:"cancelled_amount"`
	NetRevenue        decimal.Decimal `json:"net_revenue"`
	FromDate          *time.Time      `json:"from_date,omitempty"`
	ToDate            *time.Time      `json:"to_date,omitempty"`
}

// ToInvoiceItemResponse converts an invoice item to its response DTO
func ToInvoiceItemResponse(item *billing.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		SKU:         item.SKU,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		LineTotal:   item.LineTotal,
	}
}

// ToInvoiceResponse converts an invoice aggregate to its response DTO
func ToInvoiceResponse(invoice *billing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(invoice.Items))
	for i := range invoice.Items {
		items[i] = ToInvoiceItemResponse(&invoice.Items[i])
	}

	return InvoiceResponse{
		ID:             invoice.ID,
		InvoiceNumber:  invoice.InvoiceNumber,
		Subtotal:       invoice.Subtotal,
		GrandTotal:     invoice.GrandTotal,
		PaymentMethod:  invoice.PaymentMethod,
		IdempotencyKey: invoice.IdempotencyKey,
		Status:         invoice.Status,
		CancelReason:   invoice.CancelReason,
		CancelledAt:    invoice.CancelledAt,
		Items:          items,
		CreatedAt:      invoice.CreatedAt,
	}
}

// ToCheckoutResponse wraps an invoice response with the new/replayed flag
func ToCheckoutResponse(invoice *billing.Invoice, isNew bool) CheckoutResponse {
	return CheckoutResponse{
		InvoiceResponse: ToInvoiceResponse(invoice),
		NewInvoice:      isNew,
	}
}

// ToStatsResponse converts aggregated stats plus the effective bounds
func ToStatsResponse(stats *billing.Stats, query billing.StatsQuery) StatsResponse {
	return StatsResponse{
		TotalInvoices:     stats.TotalInvoices,
		PaidInvoices:      stats.PaidInvoices,
		CancelledInvoices: stats.CancelledInvoices,
		PaidRevenue:       stats.PaidRevenue,
		CancelledAmount:   stats.CancelledAmount,
		NetRevenue:        stats.PaidRevenue,
		FromDate:          query.From,
		ToDate:            query.To,
	}
}
