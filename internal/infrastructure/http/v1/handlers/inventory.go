package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/domain/inventory"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles HTTP requests for stock positions.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// Receive handles POST /inventory/receipts
func (h *InventoryHandler) Receive(c *gin.Context) {
	var req dto.StockReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.Receive(c.Request.Context(), h.OwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, receipt)
}

// List handles GET /inventory/items
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}

	result, err := h.service.List(c.Request.Context(), h.OwnerID(c), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, func(it inventory.Item) inventory.Item { return it }))
}

// Get handles GET /inventory/items/:variantId
func (h *InventoryHandler) Get(c *gin.Context) {
	variantID, ok := h.ParseID(c, "variantId")
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), h.OwnerID(c), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// RegisterRoutes registers inventory routes.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/receipts", h.Receive)
	rg.GET("/items", h.List)
	rg.GET("/items/:variantId", h.Get)
}
