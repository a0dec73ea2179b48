package billing

import (
	"fmt"
	"strings"

	"github.com/pos/backend/internal/domain/shared"
)

// CartLine is one requested product/quantity pair in a checkout cart
type CartLine struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"qty"`
}

// Cart is the input to a checkout: the requested lines plus the payment
// method. It carries no prices; unit prices are resolved from the catalog
// inside the checkout transaction.
type Cart struct {
	Lines         []CartLine
	PaymentMethod string
}

// NewCart builds a validated cart. All validation happens here, before any
// lookup or mutation is attempted.
func NewCart(lines []CartLine, paymentMethod string) (*Cart, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Cart cannot be empty")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is required")
	}

	normalized := make([]CartLine, 0, len(lines))
	for i, line := range lines {
		sku := strings.TrimSpace(strings.ToUpper(line.SKU))
		if sku == "" {
			return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Cart line %d is missing a SKU", i+1))
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("Cart line %d quantity must be positive", i+1))
		}
		normalized = append(normalized, CartLine{SKU: sku, Quantity: line.Quantity})
	}

	return &Cart{
		Lines:         normalized,
		PaymentMethod: strings.TrimSpace(paymentMethod),
	}, nil
}
