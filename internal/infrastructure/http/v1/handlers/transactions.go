package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// TransactionsHandler handles HTTP requests for ledger rows.
type TransactionsHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(base *BaseHandler, service *ledger.Service) *TransactionsHandler {
	return &TransactionsHandler{BaseHandler: base, service: service}
}

// Create handles POST /transactions
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req dto.ManualTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateManual(c.Request.Context(), h.OwnerID(c), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// List handles GET /transactions
func (h *TransactionsHandler) List(c *gin.Context) {
	var q dto.TransactionListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid month, expected YYYY-MM").WithDetail("month", q.Month))
		return
	}

	result, err := h.service.List(c.Request.Context(), h.OwnerID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, func(t ledger.Transaction) ledger.Transaction { return t }))
}

// Update handles PUT /transactions/:id
func (h *TransactionsHandler) Update(c *gin.Context) {
	txID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ManualTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateManual(c.Request.Context(), h.OwnerID(c), txID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Delete handles DELETE /transactions/:id
func (h *TransactionsHandler) Delete(c *gin.Context) {
	txID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteManual(c.Request.Context(), h.OwnerID(c), txID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ByReference handles GET /transactions/reference/:ref
func (h *TransactionsHandler) ByReference(c *gin.Context) {
	ref := c.Param("ref")

	rows, err := h.service.FindByReference(c.Request.Context(), h.OwnerID(c), ref)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewReferenceResponse(ref, rows))
}

// RegisterRoutes registers transaction routes.
func (h *TransactionsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/reference/:ref", h.ByReference)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
