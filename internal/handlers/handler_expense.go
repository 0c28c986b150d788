package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// expenseHandler handles HTTP requests for expenses under a business.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

// registerExpenseRoutes registers expense routes under /businesses/:business_id.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.addExpense)
		expenses.GET("", h.listExpenses)
		expenses.POST("/bulk", h.bulkUpsertExpenses)
	}
}

// addExpense godoc
// @Summary Record an expense
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   expense body dto.AddExpenseRequest true "Expense details"
// @Success 201 {object} domain.Expense
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /businesses/{business_id}/expenses [post]
func (h *expenseHandler) addExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.AddExpense(c.Request.Context(), c.Param("business_id"), req, userID)
	if err != nil {
		respondServiceError(c, err, "add expense")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

// listExpenses godoc
// @Summary List a business's expenses
// @Tags expenses
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Success 200 {array} domain.Expense
// @Security BearerAuth
// @Router /businesses/{business_id}/expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), c.Param("business_id"), userID)
	if err != nil {
		respondServiceError(c, err, "list expenses")
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// bulkUpsertExpenses godoc
// @Summary Bulk upsert expenses by id
// @Description Device mirror path: applies a batch of expenses idempotently. No realtime events are published.
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   business_id path string true "Business ID"
// @Param   batch body dto.BulkExpensesRequest true "Expenses to upsert"
// @Success 200 {object} dto.BulkUpsertResponse
// @Security BearerAuth
// @Router /businesses/{business_id}/expenses/bulk [post]
func (h *expenseHandler) bulkUpsertExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BulkExpensesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkUpsertExpenses", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	applied, err := h.expenseService.UpsertExpenses(c.Request.Context(), c.Param("business_id"), req.Expenses, userID)
	if err != nil {
		respondServiceError(c, err, "bulk upsert expenses")
		return
	}
	c.JSON(http.StatusOK, dto.BulkUpsertResponse{Applied: applied})
}
