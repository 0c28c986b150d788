package repositories

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// ProductReader defines read operations for product data
type ProductReader interface {
	FindProductByID(ctx context.Context, productID string) (*domain.Product, error)
	ListProductsByBusiness(ctx context.Context, businessID string) ([]domain.Product, error)
}

// ProductWriter defines write operations for product data
type ProductWriter interface {
	SaveProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error

	// DeleteProductsByBusiness removes every product under the business.
	DeleteProductsByBusiness(ctx context.Context, businessID string) error

	// UpsertProducts inserts each product by its caller-assigned id, or
	// overwrites the existing record of that id and reattaches it to
	// businessID. This is the idempotency primitive of the sync pass.
	UpsertProducts(ctx context.Context, businessID string, products []domain.Product) error
}

// ProductRepositoryFacade combines all product-related repository interfaces.
type ProductRepositoryFacade interface {
	ProductReader
	ProductWriter
}
