package services

import (
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, publisher portssvc.EventPublisher) *portssvc.ServiceContainer {
	if publisher == nil {
		publisher = portssvc.NoopPublisher{}
	}

	container := &portssvc.ServiceContainer{}
	container.Business = NewBusinessService(repos.BusinessRepo, repos.ProductRepo, repos.SaleRepo, repos.ExpenseRepo, publisher)
	container.Product = NewProductService(repos.ProductRepo, repos.BusinessRepo, publisher)
	container.Sale = NewSaleService(repos.SaleRepo, repos.ProductRepo, repos.BusinessRepo, publisher)
	container.Expense = NewExpenseService(repos.ExpenseRepo, repos.BusinessRepo, publisher)
	container.Sync = NewSyncService(repos.BusinessRepo, repos.ProductRepo, repos.SaleRepo, repos.ExpenseRepo)
	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.BusinessSvcFacade = (*businessService)(nil)
	_ portssvc.SyncSvcFacade     = (*syncService)(nil)
)
