package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/domain/reinvestment"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// ReinvestmentsHandler handles HTTP requests for reinvestments.
type ReinvestmentsHandler struct {
	*BaseHandler
	service *reinvestment.Service
}

// NewReinvestmentsHandler creates a new reinvestments handler.
func NewReinvestmentsHandler(base *BaseHandler, service *reinvestment.Service) *ReinvestmentsHandler {
	return &ReinvestmentsHandler{BaseHandler: base, service: service}
}

// Execute handles POST /reinvestments
func (h *ReinvestmentsHandler) Execute(c *gin.Context) {
	var req dto.ReinvestmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Execute(c.Request.Context(), h.OwnerID(c), req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res)
}

// RegisterRoutes registers reinvestment routes.
func (h *ReinvestmentsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Execute)
}
