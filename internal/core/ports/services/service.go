package services

// ServiceContainer holds all service facades for dependency injection.
type ServiceContainer struct {
	Business BusinessSvcFacade
	Product  ProductSvcFacade
	Sale     SaleSvcFacade
	Expense  ExpenseSvcFacade
	Sync     SyncSvcFacade
}
