package dto

import (
	"github.com/shopspring/decimal"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// SaveProductRequest carries product fields for create and update. ProductID
// is device-assigned on create; ignored on update (the path id wins).
type SaveProductRequest struct {
	ProductID    string          `json:"productID" binding:"omitempty,uuid4"`
	Name         string          `json:"name" binding:"required"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Quantity     int64           `json:"quantity" binding:"gte=0"`
	IsActive     *bool           `json:"isActive,omitempty"`
}

// RecordSaleRequest carries the fields to record a sale against a product.
type RecordSaleRequest struct {
	SaleID    string `json:"saleID" binding:"omitempty,uuid4"`
	ProductID string `json:"productID" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	Date      string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// AddExpenseRequest carries the fields to record an expense.
type AddExpenseRequest struct {
	ExpenseID string          `json:"expenseID" binding:"omitempty,uuid4"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Category  string          `json:"category" binding:"required"`
	Date      string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// BulkProductsRequest upserts a batch of products by id under one business.
type BulkProductsRequest struct {
	Products []domain.Product `json:"products" binding:"required"`
}

// BulkSalesRequest upserts a batch of sales by id under one business.
type BulkSalesRequest struct {
	Sales []domain.Sale `json:"sales" binding:"required"`
}

// BulkExpensesRequest upserts a batch of expenses by id under one business.
type BulkExpensesRequest struct {
	Expenses []domain.Expense `json:"expenses" binding:"required"`
}

// BulkUpsertResponse reports how many records a bulk upsert applied.
type BulkUpsertResponse struct {
	Applied int `json:"applied"`
}

// ListSalesResponse pages a business's sales.
type ListSalesResponse struct {
	Sales     []domain.Sale `json:"sales"`
	NextToken string        `json:"nextToken,omitempty"`
}
