package services

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// ProductSvcFacade exposes product operations scoped to a business the caller
// is a member of. Single-record writes publish realtime change events; bulk
// upserts are the device mirror path and stay silent.
type ProductSvcFacade interface {
	CreateProduct(ctx context.Context, businessID string, req dto.SaveProductRequest, userID string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, businessID, productID string, req dto.SaveProductRequest, userID string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, businessID, productID, userID string) error
	ListProducts(ctx context.Context, businessID, userID string) ([]domain.Product, error)
	UpsertProducts(ctx context.Context, businessID string, products []domain.Product, userID string) (int, error)
}

// SaleSvcFacade exposes sale operations. RecordSale snapshots the product
// name/price, computes profit once, and adjusts product stock counters.
type SaleSvcFacade interface {
	RecordSale(ctx context.Context, businessID string, req dto.RecordSaleRequest, userID string) (*domain.Sale, error)
	ListSales(ctx context.Context, businessID, userID string, limit int, nextToken string) ([]domain.Sale, string, error)
	UpsertSales(ctx context.Context, businessID string, sales []domain.Sale, userID string) (int, error)
}

// ExpenseSvcFacade exposes expense operations.
type ExpenseSvcFacade interface {
	AddExpense(ctx context.Context, businessID string, req dto.AddExpenseRequest, userID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, businessID, userID string) ([]domain.Expense, error)
	UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense, userID string) (int, error)
}
