package handler

import (
	"net/http"

	"github.com/atelier/atelier-sales-service/internal/apperr"
	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/model"
	"github.com/atelier/atelier-sales-service/internal/pkg/httperr"
	"github.com/atelier/atelier-sales-service/internal/sale"
	"github.com/atelier/atelier-sales-service/internal/sale/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SaleHandler struct {
	uc     sale.UseCase
	logger *zap.Logger
}

func NewSaleHandler(uc sale.UseCase, log *zap.Logger) *SaleHandler {
	return &SaleHandler{uc: uc, logger: log}
}

func (h *SaleHandler) Register(r *gin.RouterGroup) {
	r.POST("/sales", h.CreateSale)
	r.GET("/sales", h.ListSales)
	r.GET("/sales/:id", h.GetSale)
	r.DELETE("/sales/:id", h.DeleteSale)
	r.GET("/sale-lines/:id", h.GetLineItem)
	r.PATCH("/sale-lines/:id", h.UpdateLineItem)
	r.DELETE("/sale-lines/:id", h.DeleteLineItem)
}

func (h *SaleHandler) CreateSale(c *gin.Context) {
	var input dto.CreateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, apperr.Validation("body", err.Error()))
		return
	}

	s, err := h.uc.CreateSale(c.Request.Context(), auth.FromGin(c), &input)
	if err != nil {
		h.logger.Warn("create sale rejected", zap.Error(err))
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapSale(s))
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	s, err := h.uc.GetSale(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapSale(s))
}

func (h *SaleHandler) ListSales(c *gin.Context) {
	var filters dto.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httperr.Respond(c, apperr.Validation("query", err.Error()))
		return
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	sales, count, err := h.uc.ListSales(c.Request.Context(), auth.FromGin(c), &filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	items := make([]*dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, dto.MapSale(&sales[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"sales": items,
		"total": count,
		"page":  filters.Page,
	})
}

func (h *SaleHandler) GetLineItem(c *gin.Context) {
	line, err := h.uc.GetLineItem(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, mapLine(line))
}

func (h *SaleHandler) UpdateLineItem(c *gin.Context) {
	var input dto.UpdateLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httperr.Respond(c, apperr.Validation("body", err.Error()))
		return
	}
	input.LineID = c.Param("id")

	line, err := h.uc.UpdateLineItem(c.Request.Context(), auth.FromGin(c), &input)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, mapLine(line))
}

func (h *SaleHandler) DeleteLineItem(c *gin.Context) {
	if err := h.uc.DeleteLineItem(c.Request.Context(), auth.FromGin(c), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SaleHandler) DeleteSale(c *gin.Context) {
	if err := h.uc.DeleteSale(c.Request.Context(), auth.FromGin(c), c.Param("id")); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func mapLine(l *model.SaleLine) dto.SaleLineResponse {
	return dto.SaleLineResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Subtotal:  l.Subtotal(),
	}
}
