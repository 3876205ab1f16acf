package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/domain/sales"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// SalesHandler handles HTTP requests for sales.
type SalesHandler struct {
	*BaseHandler
	service   *sales.Service
	exchanges *exchange.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service, exchanges *exchange.Service) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service, exchanges: exchanges}
}

// Create handles POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Create(c.Request.Context(), h.OwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sale)
}

// List handles GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), h.OwnerID(c), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromSaleSummary))
}

// Get handles GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.Get(c.Request.Context(), h.OwnerID(c), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Update handles PUT /sales/:id
func (h *SalesHandler) Update(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Update(c.Request.Context(), h.OwnerID(c), saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Delete handles DELETE /sales/:id
func (h *SalesHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.OwnerID(c), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Cancel handles POST /sales/:id/cancel
func (h *SalesHandler) Cancel(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Cancel(c.Request.Context(), h.OwnerID(c), saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Repost handles POST /sales/:id/repost
func (h *SalesHandler) Repost(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.RepostTransactions(c.Request.Context(), h.OwnerID(c), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SaleTransactionsResponse{SaleID: saleID, Count: len(rows), Transactions: rows})
}

// Exchanges handles GET /sales/:id/exchanges
func (h *SalesHandler) Exchanges(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	list, err := h.exchanges.ListBySale(c.Request.Context(), h.OwnerID(c), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []exchange.ProductExchange{}
	}
	h.OK(c, gin.H{"items": list})
}

// RegisterRoutes registers sale routes.
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/repost", h.Repost)
	rg.GET("/:id/exchanges", h.Exchanges)
}
