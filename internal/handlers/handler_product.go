package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// productHandler handles HTTP requests for products under a business.
type productHandler struct {
	productService portssvc.ProductSvcFacade
}

func newProductHandler(ps portssvc.ProductSvcFacade) *productHandler {
	return &productHandler{productService: ps}
}

// registerProductRoutes registers product routes under /businesses/:business_id.
func registerProductRoutes(rg *gin.RouterGroup, productService portssvc.ProductSvcFacade) {
	h := newProductHandler(productService)

	products := rg.Group("/products")
	{
		products.POST("", h.createProduct)
		products.GET("", h.listProducts)
		products.PUT("/:product_id", h.updateProduct)
		products.DELETE("/:product_id", h.deleteProduct)
		products.POST("/bulk", h.bulkUpsertProducts)
	}
}

// createProduct godoc
// @Summary Add a product
// @Tags products
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   product body dto.SaveProductRequest true "Product details"
// @Success 201 {object} domain.Product
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id}/products [post]
func (h *productHandler) createProduct(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateProduct", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), c.Param("business_id"), req, userID)
	if err != nil {
		respondServiceError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// listProducts godoc
// @Summary List a business's products
// @Tags products
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Success 200 {array} domain.Product
// @Security BearerAuth
// @Router /businesses/{business_id}/products [get]
func (h *productHandler) listProducts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	products, err := h.productService.ListProducts(c.Request.Context(), c.Param("business_id"), userID)
	if err != nil {
		respondServiceError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// updateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   product_id path string true "Product ID"
// @Param   product body dto.SaveProductRequest true "Product details"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /businesses/{business_id}/products/{product_id} [put]
func (h *productHandler) updateProduct(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateProduct", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("business_id"), c.Param("product_id"), req, userID)
	if err != nil {
		respondServiceError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Param   business_id path string true "Business ID"
// @Param   product_id path string true "Product ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /businesses/{business_id}/products/{product_id} [delete]
func (h *productHandler) deleteProduct(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("business_id"), c.Param("product_id"), userID); err != nil {
		respondServiceError(c, err, "delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

// bulkUpsertProducts godoc
// @Summary Bulk upsert products by id
// @Description Device mirror path: applies a batch of products idempotently, re-running the same batch converges. No realtime events are published.
// @Tags products
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   batch body dto.BulkProductsRequest true "Products to upsert"
// @Success 200 {object} dto.BulkUpsertResponse
// @Security BearerAuth
// @Router /businesses/{business_id}/products/bulk [post]
func (h *productHandler) bulkUpsertProducts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BulkProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkUpsertProducts", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	applied, err := h.productService.UpsertProducts(c.Request.Context(), c.Param("business_id"), req.Products, userID)
	if err != nil {
		respondServiceError(c, err, "bulk upsert products")
		return
	}
	c.JSON(http.StatusOK, dto.BulkUpsertResponse{Applied: applied})
}
