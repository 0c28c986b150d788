package services

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// BusinessReaderSvc defines read operations on businesses.
type BusinessReaderSvc interface {
	// GetBusiness retrieves a business the caller is a member of.
	GetBusiness(ctx context.Context, businessID, userID string) (*domain.Business, error)

	// ListUserBusinesses retrieves every business the caller owns or
	// collaborates on.
	ListUserBusinesses(ctx context.Context, userID string) ([]domain.Business, error)
}

// BusinessWriterSvc defines write operations on businesses.
type BusinessWriterSvc interface {
	// CreateBusiness creates a business owned by the caller, seeded with a
	// single OWNER collaborator.
	CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest, creatorUserID string) (*domain.Business, error)

	// UpdateBusiness applies the mutable fields; caller must be the owner or
	// an active manager.
	UpdateBusiness(ctx context.Context, businessID string, req dto.UpdateBusinessRequest, userID string) (*domain.Business, error)

	// DeleteBusiness removes the business and cascades to its child records;
	// owner only.
	DeleteBusiness(ctx context.Context, businessID, userID string) error

	// ClearBusinessRecords removes every product, sale and expense under the
	// business while keeping the business itself; owner only.
	ClearBusinessRecords(ctx context.Context, businessID, userID string) error
}

// BusinessMembershipSvc defines collaborator and invite operations.
type BusinessMembershipSvc interface {
	// CreateInvite mints an invite code on the business; owner only. Plan
	// manager limits are checked at redemption.
	CreateInvite(ctx context.Context, businessID, userID string) (*dto.InviteResponse, error)

	// RedeemInvite attaches the caller as an ACTIVE MANAGER collaborator.
	// The plan's manager limit is enforced with a read-then-write check; two
	// concurrent redemptions can transiently exceed it, an accepted relaxed
	// guarantee at expected volumes.
	RedeemInvite(ctx context.Context, code, userID string) (*domain.Business, error)

	// RemoveCollaborator detaches a collaborator; owner only. The resulting
	// business_updated event is what tells the removed device to purge its
	// local state.
	RemoveCollaborator(ctx context.Context, businessID, targetUserID, actingUserID string) (*domain.Business, error)
}

// BusinessSvcFacade combines all business service interfaces.
type BusinessSvcFacade interface {
	BusinessReaderSvc
	BusinessWriterSvc
	BusinessMembershipSvc
}
