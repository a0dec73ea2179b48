package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/pos/backend/internal/application/billing"
	"github.com/pos/backend/internal/domain/billing"
	"github.com/pos/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-supplied checkout idempotency key
const IdempotencyKeyHeader = "Idempotency-Key"

const statsDateLayout = "2006-01-02"

// BillingHandler handles checkout and invoice API endpoints
type BillingHandler struct {
	BaseHandler
	checkoutService *billingapp.CheckoutService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(checkoutService *billingapp.CheckoutService) *BillingHandler {
	return &BillingHandler{
		checkoutService: checkoutService,
	}
}

// Checkout godoc
// @Summary      Check out a cart
// @Description  Atomically creates an invoice and decrements stock. Retrying
// @Description  with the same Idempotency-Key replays the stored invoice
// @Description  without touching stock; the server generates a key when the
// @Description  header is absent.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key (server generates a UUID when absent)"
// @Param        request body billing.CheckoutRequest true "Cart lines and payment method"
// @Success      200 {object} dto.Response{data=billing.CheckoutResponse} "Idempotent replay"
// @Success      201 {object} dto.Response{data=billing.CheckoutResponse} "New invoice"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/checkout [post]
func (h *BillingHandler) Checkout(c *gin.Context) {
	var req billingapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err.Error())
		return
	}

	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if result.NewInvoice {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// GetInvoice godoc
// @Summary      Get invoice by number
// @Description  Retrieves an invoice with its lines by invoice number
// @Tags         billing
// @Produce      json
// @Param        invoice_no path int true "Invoice number"
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{invoice_no} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoiceNumber, err := strconv.ParseInt(c.Param("invoice_no"), 10, 64)
	if err != nil || invoiceNumber <= 0 {
		h.BadRequest(c, "Invalid invoice number")
		return
	}

	invoice, err := h.checkoutService.GetByNumber(c.Request.Context(), invoiceNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// ListInvoices godoc
// @Summary      List invoices
// @Description  Retrieves invoices newest first
// @Tags         billing
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]billing.InvoiceResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.checkoutService.List(c.Request.Context(), page, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// CancelInvoice godoc
// @Summary      Cancel an invoice
// @Description  Cancels a paid invoice and restores its stock in the same
// @Description  transaction. Cancelling twice fails; lines are kept for audit.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        invoice_no path int true "Invoice number"
// @Param        request body billing.CancelInvoiceRequest false "Optional cancellation reason"
// @Success      200 {object} dto.Response{data=billing.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/invoices/{invoice_no}/cancel [post]
func (h *BillingHandler) CancelInvoice(c *gin.Context) {
	invoiceNumber, err := strconv.ParseInt(c.Param("invoice_no"), 10, 64)
	if err != nil || invoiceNumber <= 0 {
		h.BadRequest(c, "Invalid invoice number")
		return
	}

	// Body is optional; an empty body means no reason
	var req billingapp.CancelInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err.Error())
			return
		}
	}

	invoice, err := h.checkoutService.Cancel(c.Request.Context(), invoiceNumber, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Stats godoc
// @Summary      Invoice statistics
// @Description  Aggregates invoice counts and revenue. Optional date bounds
// @Description  are inclusive calendar days.
// @Tags         billing
// @Produce      json
// @Param        from_date query string false "Start date (YYYY-MM-DD)"
// @Param        to_date query string false "End date (YYYY-MM-DD), inclusive"
// @Success      200 {object} dto.Response{data=billing.StatsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/stats [get]
func (h *BillingHandler) Stats(c *gin.Context) {
	var query billing.StatsQuery

	if fromStr := c.Query("from_date"); fromStr != "" {
		from, err := time.Parse(statsDateLayout, fromStr)
		if err != nil {
			h.ValidationError(c, "from_date must be in YYYY-MM-DD format")
			return
		}
		query.From = &from
	}

	if toStr := c.Query("to_date"); toStr != "" {
		to, err := time.Parse(statsDateLayout, toStr)
		if err != nil {
			h.ValidationError(c, "to_date must be in YYYY-MM-DD format")
			return
		}
		// Inclusive day bound
		to = to.Add(24*time.Hour - time.Nanosecond)
		query.To = &to
	}

	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		h.ValidationError(c, "from_date must not be after to_date")
		return
	}

	stats, err := h.checkoutService.Stats(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// Keep the dto package imported for the swagger annotations above
var _ = dto.Response{}
