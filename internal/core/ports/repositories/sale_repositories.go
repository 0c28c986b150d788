package repositories

import (
	"context"
	"time"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// SaleReader defines read operations for sale data
type SaleReader interface {
	FindSaleByID(ctx context.Context, saleID string) (*domain.Sale, error)

	// ListSalesByBusiness pages through a business's sales, newest first.
	// When fromCreatedAt is non-zero, only sales strictly before
	// (fromCreatedAt, fromSaleID) in (created_at, sale_id) order are
	// returned, so rows sharing a creation time never straddle a page
	// boundary. limit <= 0 means no limit.
	ListSalesByBusiness(ctx context.Context, businessID string, limit int, fromCreatedAt time.Time, fromSaleID string) ([]domain.Sale, error)
}

// SaleWriter defines write operations for sale data
type SaleWriter interface {
	SaveSale(ctx context.Context, sale domain.Sale) error
	DeleteSalesByBusiness(ctx context.Context, businessID string) error
	UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) error
}

// SaleRepositoryFacade combines all sale-related repository interfaces.
type SaleRepositoryFacade interface {
	SaleReader
	SaleWriter
}
