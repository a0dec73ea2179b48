// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pos/backend/internal/domain/billing"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics tracks sales activity and inventory health. Counters are
// fed by domain events after each transaction commits; the low-stock gauge is
// refreshed by a periodic collector.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceCreatedTotal   *Counter
	invoiceCancelledTotal *Counter
	revenueCentsTotal     *Counter
	unitsSoldTotal        *Counter
	unitsRestoredTotal    *Counter
	stockReceivedTotal    *Counter

	// Gauge metrics (point-in-time values)
	lowStockCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock data for periodic metrics collection.
// This interface keeps the telemetry layer from depending on the persistence
// layer directly.
type StockMetricsProvider interface {
	// GetLowStockCount returns the number of active products at or below the
	// given on-hand threshold
	GetLowStockCount(ctx context.Context, threshold int64) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	LowStockThreshold int64         // Default: 10 units
	StockProvider     StockMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error

	bm.invoiceCreatedTotal, err = NewCounter(
		cfg.Meter,
		"pos_invoice_created_total",
		"Total number of invoices created",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.invoiceCancelledTotal, err = NewCounter(
		cfg.Meter,
		"pos_invoice_cancelled_total",
		"Total number of invoices cancelled",
		"{invoices}",
	)
	if err != nil {
		return nil, err
	}

	bm.revenueCentsTotal, err = NewCounter(
		cfg.Meter,
		"pos_revenue_cents_total",
		"Total invoiced amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.unitsSoldTotal, err = NewCounter(
		cfg.Meter,
		"pos_units_sold_total",
		"Total units sold across all invoices",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.unitsRestoredTotal, err = NewCounter(
		cfg.Meter,
		"pos_units_restored_total",
		"Total units restored to stock by cancellations",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockReceivedTotal, err = NewCounter(
		cfg.Meter,
		"pos_stock_received_total",
		"Total units received into stock",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"pos_low_stock_count",
		"Number of products at or below the low-stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordInvoiceCreated records a committed checkout
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, paymentMethod string, grandTotal decimal.Decimal, unitsSold int64) {
	bm.invoiceCreatedTotal.Inc(ctx, AttrPaymentMethod.String(paymentMethod))
	bm.unitsSoldTotal.Add(ctx, unitsSold, AttrPaymentMethod.String(paymentMethod))

	cents := grandTotal.Mul(decimal.NewFromInt(100)).IntPart()
	bm.revenueCentsTotal.Add(ctx, cents, AttrPaymentMethod.String(paymentMethod))
}

// RecordInvoiceCancelled records a committed cancellation
func (bm *BusinessMetrics) RecordInvoiceCancelled(ctx context.Context, unitsRestored int64) {
	bm.invoiceCancelledTotal.Inc(ctx)
	bm.unitsRestoredTotal.Add(ctx, unitsRestored)
}

// RecordStockReceived records a committed goods receipt
func (bm *BusinessMetrics) RecordStockReceived(ctx context.Context, sku string, quantity int64) {
	bm.stockReceivedTotal.Add(ctx, quantity, AttrSKU.String(sku))
}

// RecordLowStockCount records the number of products below the threshold.
// This is a gauge metric updated by the periodic collector.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockCount.Record(ctx, count)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration, lowStockThreshold int64) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		if lowStockThreshold <= 0 {
			lowStockThreshold = 10
		}

		go bm.runPeriodicCollection(ctx, interval, lowStockThreshold)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration, threshold int64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectStockMetrics(ctx, threshold)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStockMetrics(ctx, threshold)
		}
	}
}

func (bm *BusinessMetrics) collectStockMetrics(ctx context.Context, threshold int64) {
	if bm.stockProvider == nil {
		bm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	count, err := bm.stockProvider.GetLowStockCount(ctx, threshold)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
		return
	}
	bm.RecordLowStockCount(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Domain Event Handler
// =============================================================================

// BusinessMetricsHandler feeds BusinessMetrics from domain events. It is
// subscribed to the in-process event bus, which publishes only after the
// owning transaction has committed.
type BusinessMetricsHandler struct {
	metrics *BusinessMetrics
}

// NewBusinessMetricsHandler creates a new BusinessMetricsHandler
func NewBusinessMetricsHandler(metrics *BusinessMetrics) *BusinessMetricsHandler {
	return &BusinessMetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler subscribes to
func (h *BusinessMetricsHandler) EventTypes() []string {
	return []string{
		billing.EventTypeInvoiceCreated,
		billing.EventTypeInvoiceCancelled,
		stock.EventTypeStockReceived,
	}
}

// Handle maps a domain event to metric recordings
func (h *BusinessMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *billing.InvoiceCreatedEvent:
		h.metrics.RecordInvoiceCreated(ctx, e.PaymentMethod, e.GrandTotal, e.UnitsSold)
	case *billing.InvoiceCancelledEvent:
		h.metrics.RecordInvoiceCancelled(ctx, e.UnitsRestored)
	case *stock.StockReceivedEvent:
		h.metrics.RecordStockReceived(ctx, e.SKU, e.Quantity)
	}
	return nil
}

// Ensure BusinessMetricsHandler implements EventHandler
var _ shared.EventHandler = (*BusinessMetricsHandler)(nil)

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
