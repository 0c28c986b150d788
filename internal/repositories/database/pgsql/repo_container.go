package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	businessRepo := newPgxBusinessRepository(dbPool)
	productRepo := newPgxProductRepository(dbPool)
	saleRepo := newPgxSaleRepository(dbPool)
	expenseRepo := newPgxExpenseRepository(dbPool)

	return portsrepo.RepositoryProvider{
		BusinessRepo: businessRepo,
		ProductRepo:  productRepo,
		SaleRepo:     saleRepo,
		ExpenseRepo:  expenseRepo,
	}
}
