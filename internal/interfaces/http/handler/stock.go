package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	stockapp "github.com/pos/backend/internal/application/stock"
)

// StockHandler handles stock level API endpoints
type StockHandler struct {
	BaseHandler
	stockService *stockapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// Receive godoc
// @Summary      Receive stock
// @Description  Records a goods receipt, adding the quantity to the product's
// @Description  stock record
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body stock.ReceiveStockRequest true "Goods receipt"
// @Success      200 {object} dto.Response{data=stock.StockRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/receive [post]
func (h *StockHandler) Receive(c *gin.Context) {
	var req stockapp.ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err.Error())
		return
	}

	record, err := h.stockService.Receive(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// CheckAvailability godoc
// @Summary      Check stock availability
// @Description  Advisory availability check for a set of cart lines. A clean
// @Description  result does not reserve stock; checkout re-enforces
// @Description  availability transactionally.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body stock.CheckAvailabilityRequest true "Lines to check"
// @Success      200 {object} dto.Response{data=stock.AvailabilityResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/availability [post]
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req stockapp.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err.Error())
		return
	}

	result, err := h.stockService.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBySKU godoc
// @Summary      Get stock record by SKU
// @Description  Retrieves the stock record for a product. A product that has
// @Description  never received stock reports zeros.
// @Tags         stock
// @Produce      json
// @Param        sku path string true "Product SKU"
// @Success      200 {object} dto.Response{data=stock.StockRecordResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/{sku} [get]
func (h *StockHandler) GetBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "Product SKU is required")
		return
	}

	record, err := h.stockService.GetBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// List godoc
// @Summary      List stock records
// @Description  Retrieves paginated stock records with their product identity
// @Tags         stock
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(50) maximum(100)
// @Success      200 {object} dto.Response{data=[]stock.StockRecordResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock [get]
func (h *StockHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.stockService.List(c.Request.Context(), page, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
