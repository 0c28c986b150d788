package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// saleHandler handles HTTP requests for sales under a business.
type saleHandler struct {
	saleService portssvc.SaleSvcFacade
}

func newSaleHandler(ss portssvc.SaleSvcFacade) *saleHandler {
	return &saleHandler{saleService: ss}
}

// registerSaleRoutes registers sale routes under /businesses/:business_id.
func registerSaleRoutes(rg *gin.RouterGroup, saleService portssvc.SaleSvcFacade) {
	h := newSaleHandler(saleService)

	sales := rg.Group("/sales")
	{
		sales.POST("", h.recordSale)
		sales.GET("", h.listSales)
		sales.POST("/bulk", h.bulkUpsertSales)
	}
}

// recordSale godoc
// @Summary Record a sale
// @Description Snapshots the product's name and price, computes profit, and adjusts stock counters.
// @Tags sales
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   sale body dto.RecordSaleRequest true "Sale details"
// @Success 201 {object} domain.Sale
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Unknown product"
// @Security BearerAuth
// @Router /businesses/{business_id}/sales [post]
func (h *saleHandler) recordSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordSale", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sale, err := h.saleService.RecordSale(c.Request.Context(), c.Param("business_id"), req, userID)
	if err != nil {
		respondServiceError(c, err, "record sale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// listSales godoc
// @Summary List a business's sales
// @Description Pages newest first; pass nextToken from the previous page to continue.
// @Tags sales
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   limit query int false "Page size (default 100)"
// @Param   nextToken query string false "Continuation token"
// @Success 200 {object} dto.ListSalesResponse
// @Security BearerAuth
// @Router /businesses/{business_id}/sales [get]
func (h *saleHandler) listSales(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	sales, nextToken, err := h.saleService.ListSales(c.Request.Context(), c.Param("business_id"), userID, limit, c.Query("nextToken"))
	if err != nil {
		respondServiceError(c, err, "list sales")
		return
	}
	c.JSON(http.StatusOK, dto.ListSalesResponse{Sales: sales, NextToken: nextToken})
}

// bulkUpsertSales godoc
// @Summary Bulk upsert sales by id
// @Description Device mirror path: applies a batch of sales idempotently. No realtime events are published.
// @Tags sales
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   batch body dto.BulkSalesRequest true "Sales to upsert"
// @Success 200 {object} dto.BulkUpsertResponse
// @Security BearerAuth
// @Router /businesses/{business_id}/sales/bulk [post]
func (h *saleHandler) bulkUpsertSales(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BulkSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkUpsertSales", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	applied, err := h.saleService.UpsertSales(c.Request.Context(), c.Param("business_id"), req.Sales, userID)
	if err != nil {
		respondServiceError(c, err, "bulk upsert sales")
		return
	}
	c.JSON(http.StatusOK, dto.BulkUpsertResponse{Applied: applied})
}
