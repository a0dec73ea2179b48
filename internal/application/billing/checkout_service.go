package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/billing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// maxSequencerAttempts bounds how often a checkout is re-run after losing
// the invoice-number race to a concurrent transaction
const maxSequencerAttempts = 3

// CheckoutService is the billing transaction engine. It converts a cart
// into a durable invoice: idempotency lookup, advisory availability check,
// then one atomic unit of work that claims the invoice number and
// idempotency key, snapshots the cart lines, and decrements stock.
//
// The availability check before the transaction is a fast-fail optimization
// only; the enforcement mechanism is the row lock plus guarded decrement
// inside the transaction.
type CheckoutService struct {
	invoiceRepo    billing.InvoiceRepository
	stockRepo      stock.StockRecordRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher

	// Cart size guards; zero means unlimited
	maxCartLines    int
	maxLineQuantity int64
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	invoiceRepo billing.InvoiceRepository,
	stockRepo stock.StockRecordRepository,
	txScope TransactionScope,
) *CheckoutService {
	return &CheckoutService{
		invoiceRepo: invoiceRepo,
		stockRepo:   stockRepo,
		txScope:     txScope,
	}
}

// SetEventPublisher sets the event publisher for post-commit fan-out
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCartLimits bounds the accepted cart size. Limits of zero disable the
// corresponding guard.
func (s *CheckoutService) SetCartLimits(maxLines int, maxLineQuantity int64) {
	s.maxCartLines = maxLines
	s.maxLineQuantity = maxLineQuantity
}

// Checkout converts a cart into a paid invoice, exactly once per
// idempotency key. A replayed key returns the original invoice without
// touching stock. An empty key means the client did not supply one; the
// server generates a UUID and returns it so the client can retry safely.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	if s.maxCartLines > 0 && len(req.Items) > s.maxCartLines {
		return nil, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("Cart cannot exceed %d lines", s.maxCartLines))
	}

	lines := make([]billing.CartLine, len(req.Items))
	for i, item := range req.Items {
		if s.maxLineQuantity > 0 && item.Quantity > s.maxLineQuantity {
			return nil, shared.NewDomainError("VALIDATION_ERROR",
				fmt.Sprintf("Cart line %d exceeds the maximum quantity of %d", i+1, s.maxLineQuantity))
		}
		lines[i] = billing.CartLine{SKU: item.SKU, Quantity: item.Quantity}
	}
	cart, err := billing.NewCart(lines, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	// Idempotency short-circuit: a committed invoice under this key is the
	// answer, full stop. Stock is not re-validated and not re-touched.
	existing, err := s.invoiceRepo.FindByIdempotencyKey(ctx, idempotencyKey)
	if err == nil {
		resp := ToCheckoutResponse(existing, false)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	// Advisory availability check. Catches obviously short carts before any
	// row is written; a pass here can still go stale before commit.
	demands := make([]stock.Demand, len(cart.Lines))
	for i, line := range cart.Lines {
		demands[i] = stock.Demand{SKU: line.SKU, Quantity: line.Quantity}
	}
	availability, err := s.stockRepo.CheckAvailability(ctx, demands)
	if err != nil {
		return nil, err
	}
	if !availability.AllAvailable {
		return nil, insufficientStockError(availability.Shortfalls)
	}

	invoice, err := s.runCheckoutUnit(ctx, cart, idempotencyKey)
	if errors.Is(err, shared.ErrDuplicateIdempotencyKey) {
		// A concurrent request with the same key committed first. Its
		// invoice is the canonical result for this logical request.
		committed, fetchErr := s.invoiceRepo.FindByIdempotencyKey(ctx, idempotencyKey)
		if fetchErr != nil {
			return nil, fetchErr
		}
		resp := ToCheckoutResponse(committed, false)
		return &resp, nil
	}
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	resp := ToCheckoutResponse(invoice, true)
	return &resp, nil
}

// runCheckoutUnit executes the atomic unit of work, retrying from scratch
// when the computed invoice number collides with a concurrent checkout
func (s *CheckoutService) runCheckoutUnit(ctx context.Context, cart *billing.Cart, idempotencyKey string) (*billing.Invoice, error) {
	var lastErr error
	for attempt := 0; attempt < maxSequencerAttempts; attempt++ {
		var invoice *billing.Invoice
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var txErr error
			invoice, txErr = s.checkoutInTx(ctx, repos, cart, idempotencyKey)
			return txErr
		})
		if err == nil {
			return invoice, nil
		}
		if errors.Is(err, shared.ErrDuplicateInvoiceNumber) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// checkoutInTx is the body of the atomic unit of work. Every step runs on
// the shared transactional handle; any error rolls the whole unit back.
func (s *CheckoutService) checkoutInTx(ctx context.Context, repos TransactionalRepositories, cart *billing.Cart, idempotencyKey string) (*billing.Invoice, error) {
	invoiceNumber, err := repos.InvoiceRepo().NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := billing.NewInvoice(invoiceNumber, cart.PaymentMethod, idempotencyKey)
	if err != nil {
		return nil, err
	}

	// Insert the invoice row first: this claims both unique constraints
	// (number and key) before any stock row is written, so a lost race
	// rolls back without ever touching inventory.
	if err := repos.InvoiceRepo().Create(ctx, invoice); err != nil {
		return nil, err
	}

	for _, line := range cart.Lines {
		product, err := repos.ProductRepo().FindBySKU(ctx, line.SKU)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainErrorWithDetails("PRODUCT_NOT_FOUND",
					fmt.Sprintf("Product %s not found", line.SKU),
					map[string]string{"sku": line.SKU})
			}
			return nil, err
		}
		if !product.IsActive() {
			return nil, shared.NewDomainErrorWithDetails("INACTIVE_PRODUCT",
				fmt.Sprintf("Product %s is not active", line.SKU),
				map[string]string{"sku": line.SKU})
		}

		item, err := invoice.AddLine(product.ID, product.SKU, product.Name, line.Quantity, product.UnitPrice)
		if err != nil {
			return nil, err
		}
		if err := repos.InvoiceRepo().AddItem(ctx, item); err != nil {
			return nil, err
		}

		// Lock the stock row, then apply the guarded decrement. The lock
		// serializes concurrent checkouts on the same SKU; the guard is what
		// keeps quantity non-negative even if the advisory check went stale.
		record, err := repos.StockRepo().FindByProductIDForUpdate(ctx, product.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, insufficientStockError([]stock.Shortfall{
					{SKU: line.SKU, Requested: line.Quantity, Available: 0},
				})
			}
			return nil, err
		}
		if !record.CanFulfill(line.Quantity) {
			return nil, insufficientStockError([]stock.Shortfall{
				{SKU: line.SKU, Requested: line.Quantity, Available: record.Quantity},
			})
		}
		if err := repos.StockRepo().ApplySale(ctx, product.ID, line.Quantity); err != nil {
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil, insufficientStockError([]stock.Shortfall{
					{SKU: line.SKU, Requested: line.Quantity, Available: record.Quantity},
				})
			}
			return nil, err
		}
	}

	if err := invoice.Finalize(); err != nil {
		return nil, err
	}
	if err := repos.InvoiceRepo().Update(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// Cancel transitions a paid invoice to cancelled and restores the sold
// quantities to stock, all inside one transaction. The invoice row is
// locked so two concurrent cancels cannot both restore stock.
func (s *CheckoutService) Cancel(ctx context.Context, invoiceNumber int64, reason string) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		invoice, txErr = repos.InvoiceRepo().FindByNumberForUpdate(ctx, invoiceNumber)
		if txErr != nil {
			return txErr
		}

		if txErr := invoice.Cancel(reason); txErr != nil {
			return txErr
		}

		for _, item := range invoice.Items {
			if txErr := repos.StockRepo().ApplyRestore(ctx, item.ProductID, item.Quantity); txErr != nil {
				return txErr
			}
		}

		return repos.InvoiceRepo().Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// GetByNumber retrieves an invoice by its human-facing number
func (s *CheckoutService) GetByNumber(ctx context.Context, invoiceNumber int64) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice)
	return &resp, nil
}

// List retrieves invoices newest first
func (s *CheckoutService) List(ctx context.Context, page, pageSize int) (*shared.Paginated[InvoiceResponse], error) {
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
		OrderBy:  "invoice_number",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceResponse(&invoices[i])
	}

	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// Stats aggregates invoice counts and revenue within the optional bounds;
// nil bounds mean all-time
func (s *CheckoutService) Stats(ctx context.Context, query billing.StatsQuery) (*StatsResponse, error) {
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "from_date cannot be after to_date")
	}

	stats, err := s.invoiceRepo.AggregateStats(ctx, query)
	if err != nil {
		return nil, err
	}

	resp := ToStatsResponse(stats, query)
	return &resp, nil
}

// publishEvents drains the aggregate's events onto the bus after commit.
// Publish failures are swallowed; events here are observability fan-out,
// never part of the transactional contract.
func (s *CheckoutService) publishEvents(ctx context.Context, invoice *billing.Invoice) {
	if s.eventPublisher == nil {
		return
	}
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	invoice.ClearDomainEvents()
}

// insufficientStockError builds the INSUFFICIENT_STOCK error carrying the
// per-line shortfall list
func insufficientStockError(shortfalls []stock.Shortfall) error {
	return shared.NewDomainErrorWithDetails("INSUFFICIENT_STOCK",
		"Insufficient stock for one or more items", shortfalls)
}
