package handlers

import (
	"github.com/gin-gonic/gin"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/reports"
	"helmetledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Profit handles GET /reports/profit
func (h *ReportsHandler) Profit(c *gin.Context) {
	summary, err := h.service.ProfitSummary(c.Request.Context(), h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// MonthlyProfit handles GET /reports/profit/:month
func (h *ReportsHandler) MonthlyProfit(c *gin.Context) {
	m, ok := h.parseMonth(c)
	if !ok {
		return
	}

	profit, err := h.service.MonthlyProfit(c.Request.Context(), h.OwnerID(c), m)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, profit)
}

// CashFlow handles GET /reports/cash-flow
func (h *ReportsHandler) CashFlow(c *gin.Context) {
	summary, err := h.service.CashFlowSummary(c.Request.Context(), h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, summary)
}

// MonthlyCashFlow handles GET /reports/cash-flow/:month
func (h *ReportsHandler) MonthlyCashFlow(c *gin.Context) {
	m, ok := h.parseMonth(c)
	if !ok {
		return
	}

	breakdown, err := h.service.MonthlyCashFlow(c.Request.Context(), h.OwnerID(c), m)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, breakdown)
}

// Months handles GET /reports/months
func (h *ReportsHandler) Months(c *gin.Context) {
	months, err := h.service.AvailableMonths(c.Request.Context(), h.OwnerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MonthsResponse{Months: months})
}

// Sum handles GET /reports/sum?where=<expr>
func (h *ReportsHandler) Sum(c *gin.Context) {
	var q dto.SumQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.SumWhere(c.Request.Context(), h.OwnerID(c), q.Where)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

func (h *ReportsHandler) parseMonth(c *gin.Context) (types.Month, bool) {
	m, err := types.ParseMonth(c.Param("month"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid month, expected YYYY-MM").WithDetail("month", c.Param("month")))
		return types.Month{}, false
	}
	return m, true
}

// RegisterRoutes registers report routes.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profit", h.Profit)
	rg.GET("/profit/:month", h.MonthlyProfit)
	rg.GET("/cash-flow", h.CashFlow)
	rg.GET("/cash-flow/:month", h.MonthlyCashFlow)
	rg.GET("/months", h.Months)
	rg.GET("/sum", h.Sum)
}
