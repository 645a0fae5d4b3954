package handler

import (
	"net/http"
	"strconv"

	"github.com/atelier/atelier-sales-service/internal/auth"
	"github.com/atelier/atelier-sales-service/internal/catalog"
	"github.com/atelier/atelier-sales-service/internal/inventory"
	"github.com/atelier/atelier-sales-service/internal/pkg/httperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	logger *zap.Logger
}

func NewCatalogHandler(uc catalog.UseCase, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{uc: uc, logger: log}
}

func (h *CatalogHandler) Register(r *gin.RouterGroup) {
	r.GET("/products/:id", h.GetProduct)
	r.GET("/artisans/:id/products", h.ListArtisanProducts)
	r.GET("/stock-movements", h.ListMovements)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.uc.GetProduct(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ListArtisanProducts(c *gin.Context) {
	products, err := h.uc.ListArtisanProducts(c.Request.Context(), auth.FromGin(c), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *CatalogHandler) ListMovements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := &inventory.MovementFilters{
		ProductID:    c.Query("product_id"),
		MovementType: c.Query("movement_type"),
		Page:         page,
		PageSize:     pageSize,
	}

	movements, count, err := h.uc.ListMovements(c.Request.Context(), auth.FromGin(c), filters)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"total":     count,
	})
}
