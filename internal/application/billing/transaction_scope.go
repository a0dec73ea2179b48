package billing

import (
	"context"

	"github.com/pos/backend/internal/domain/billing"
	"github.com/pos/backend/internal/domain/catalog"
	"github.com/pos/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the repositories the
// checkout unit of work composes. Everything executed within one scope runs
// on the same database transaction and commits or rolls back atomically; the
// scope owns begin/commit/rollback, the composed operations only share the
// handle.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the billing-side repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - InvoiceRepo: the Invoice aggregate (invoice row + its line items).
//   - ProductRepo: read-only inside checkout; products are referenced for
//     the authoritative existence/active check and the price snapshot, never
//     mutated by billing.
//   - StockRepo: stock rows are the contended resource; mutations go through
//     the guarded relative-delta operations only.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// StockRepo returns the stock record repository scoped to the current transaction
	StockRepo() stock.StockRecordRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	invoiceRepo billing.InvoiceRepository
	productRepo catalog.ProductRepository
	stockRepo   stock.StockRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo billing.InvoiceRepository,
	productRepo catalog.ProductRepository,
	stockRepo stock.StockRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// StockRepo returns the stock record repository.
func (s *NoOpTransactionScope) StockRepo() stock.StockRecordRepository {
	return s.stockRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
