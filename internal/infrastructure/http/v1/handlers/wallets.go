package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/domain/wallet"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// WalletsHandler handles HTTP requests for wallets.
type WalletsHandler struct {
	*BaseHandler
	service *wallet.Service
}

// NewWalletsHandler creates a new wallets handler.
func NewWalletsHandler(base *BaseHandler, service *wallet.Service) *WalletsHandler {
	return &WalletsHandler{BaseHandler: base, service: service}
}

// Balances handles GET /wallets
func (h *WalletsHandler) Balances(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := h.OwnerID(c)

	balances, err := h.service.Balances(ctx, ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	accounts, err := h.service.Accounts(ctx, ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if accounts == nil {
		accounts = []wallet.Account{}
	}
	h.OK(c, dto.WalletsResponse{Balances: balances, Accounts: accounts})
}

// Convert handles POST /wallets/convert
func (h *WalletsHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if !h.BindJSON(c, &req) {
		return
	}

	conv, err := h.service.Convert(c.Request.Context(), h.OwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, conv)
}

// RegisterRoutes registers wallet routes.
func (h *WalletsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Balances)
	rg.POST("/convert", h.Convert)
}
