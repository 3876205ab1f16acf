package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/domain/exchange"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// ExchangesHandler handles HTTP requests for product exchanges.
type ExchangesHandler struct {
	*BaseHandler
	service *exchange.Service
}

// NewExchangesHandler creates a new exchanges handler.
func NewExchangesHandler(base *BaseHandler, service *exchange.Service) *ExchangesHandler {
	return &ExchangesHandler{BaseHandler: base, service: service}
}

// Create handles POST /exchanges
func (h *ExchangesHandler) Create(c *gin.Context) {
	var req dto.ExchangeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Exchange(c.Request.Context(), h.OwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// Get handles GET /exchanges/:id
func (h *ExchangesHandler) Get(c *gin.Context) {
	exchangeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ex, err := h.service.Get(c.Request.Context(), h.OwnerID(c), exchangeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ex)
}

// RegisterRoutes registers exchange routes.
func (h *ExchangesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
}
