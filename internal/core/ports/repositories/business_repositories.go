package repositories

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// BusinessReader defines read operations for business data
type BusinessReader interface {
	// FindBusinessByID retrieves a specific business by its external id.
	FindBusinessByID(ctx context.Context, businessID string) (*domain.Business, error)

	// FindBusinessByInviteCode retrieves the business carrying the invite code.
	FindBusinessByInviteCode(ctx context.Context, code string) (*domain.Business, error)

	// ListBusinessesByOwner retrieves all businesses owned by a user.
	ListBusinessesByOwner(ctx context.Context, ownerID string) ([]domain.Business, error)

	// ListBusinessesByMembership retrieves all businesses a user owns or
	// collaborates on.
	ListBusinessesByMembership(ctx context.Context, userID string) ([]domain.Business, error)
}

// BusinessWriter defines write operations for business data
type BusinessWriter interface {
	// SaveBusiness persists a new business.
	SaveBusiness(ctx context.Context, business domain.Business) error

	// UpdateBusiness overwrites an existing business's fields by external id.
	UpdateBusiness(ctx context.Context, business domain.Business) error

	// DeleteBusiness removes a business and cascades to its products, sales
	// and expenses.
	DeleteBusiness(ctx context.Context, businessID string) error

	// DeleteBusinessesNotIn removes every business owned by ownerID whose
	// external id and storage-internal id are both absent from keep,
	// cascading to child records. Returns the number of businesses removed.
	DeleteBusinessesNotIn(ctx context.Context, ownerID string, keep []string) (int, error)
}

// BusinessRepositoryFacade combines all business-related repository interfaces.
type BusinessRepositoryFacade interface {
	BusinessReader
	BusinessWriter
}
