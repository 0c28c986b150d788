package repositories

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)
	ListExpensesByBusiness(ctx context.Context, businessID string) ([]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	SaveExpense(ctx context.Context, expense domain.Expense) error
	DeleteExpensesByBusiness(ctx context.Context, businessID string) error
	UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces.
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}
