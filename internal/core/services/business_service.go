package services

import (
	"log/slog"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/utils"
)

const inviteTTL = 48 * time.Hour

// businessService implements the BusinessSvcFacade interface
type businessService struct {
	BaseService
	businessGuard
	businessRepo portsrepo.BusinessRepositoryFacade
	productRepo  portsrepo.ProductWriter
	saleRepo     portsrepo.SaleWriter
	expenseRepo  portsrepo.ExpenseWriter
	publisher    portssvc.EventPublisher
}

// NewBusinessService creates a new business service with the provided dependencies
func NewBusinessService(
	businessRepo portsrepo.BusinessRepositoryFacade,
	productRepo portsrepo.ProductWriter,
	saleRepo portsrepo.SaleWriter,
	expenseRepo portsrepo.ExpenseWriter,
	publisher portssvc.EventPublisher,
) portssvc.BusinessSvcFacade {
	return &businessService{
		businessGuard: businessGuard{businessRepo: businessRepo},
		businessRepo:  businessRepo,
		productRepo:   productRepo,
		saleRepo:      saleRepo,
		expenseRepo:   expenseRepo,
		publisher:     publisher,
	}
}

var _ portssvc.BusinessSvcFacade = (*businessService)(nil)

// CreateBusiness creates a business owned by the caller with a single OWNER collaborator.
func (s *businessService) CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest, creatorUserID string) (*domain.Business, error) {
	now := time.Now().UTC()
	businessID := req.BusinessID
	if businessID == "" {
		businessID = uuid.NewString()
	}
	plan := req.Plan
	if plan == "" {
		plan = domain.PlanFree
	}

	business := domain.Business{
		BusinessID:    businessID,
		Name:          req.Name,
		CurrencyCode:  req.CurrencyCode,
		Plan:          plan,
		OwnerID:       creatorUserID,
		Collaborators: []domain.Collaborator{domain.NewOwnerCollaborator(creatorUserID, now)},
		TaxSettings:   req.TaxSettings.ToDomainTaxSettings(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.businessRepo.SaveBusiness(ctx, business); err != nil {
		s.LogError(ctx, err, "Failed to save business", slog.String("business_id", businessID))
		return nil, err
	}

	s.LogInfo(ctx, "Business created", slog.String("business_id", businessID), slog.String("owner_id", creatorUserID))
	return &business, nil
}

// GetBusiness retrieves a business the caller is a member of.
func (s *businessService) GetBusiness(ctx context.Context, businessID, userID string) (*domain.Business, error) {
	return s.requireMember(ctx, businessID, userID)
}

// ListUserBusinesses retrieves every business the caller owns or collaborates on.
func (s *businessService) ListUserBusinesses(ctx context.Context, userID string) ([]domain.Business, error) {
	businesses, err := s.businessRepo.ListBusinessesByMembership(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list businesses", slog.String("user_id", userID))
		return nil, err
	}
	if businesses == nil {
		return []domain.Business{}, nil
	}
	return businesses, nil
}

// UpdateBusiness applies the mutable fields; owner or active manager only.
func (s *businessService) UpdateBusiness(ctx context.Context, businessID string, req dto.UpdateBusinessRequest, userID string) (*domain.Business, error) {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != userID {
		collab, ok := business.FindCollaborator(userID)
		if !ok || collab.Role != domain.RoleManager || collab.Status != domain.CollaboratorActive {
			return nil, apperrors.NewForbiddenError("only the owner or an active manager may update the business")
		}
	}

	if req.Name != nil {
		business.Name = *req.Name
	}
	if req.CurrencyCode != nil {
		business.CurrencyCode = *req.CurrencyCode
	}
	if req.Plan != nil {
		business.Plan = *req.Plan
	}
	if req.TaxSettings != nil {
		business.TaxSettings = req.TaxSettings.ToDomainTaxSettings()
	}
	business.LastUpdatedAt = time.Now().UTC()
	business.LastUpdatedBy = userID

	if err := business.ValidateOwnership(); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	if err := s.businessRepo.UpdateBusiness(ctx, *business); err != nil {
		s.LogError(ctx, err, "Failed to update business", slog.String("business_id", businessID))
		return nil, err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventBusinessUpdated,
		BusinessID: businessID,
		Business:   business,
	})
	return business, nil
}

// DeleteBusiness removes the business; child records cascade with it.
func (s *businessService) DeleteBusiness(ctx context.Context, businessID, userID string) error {
	if _, err := s.requireOwner(ctx, businessID, userID); err != nil {
		return err
	}
	if err := s.businessRepo.DeleteBusiness(ctx, businessID); err != nil {
		s.LogError(ctx, err, "Failed to delete business", slog.String("business_id", businessID))
		return err
	}

	s.LogInfo(ctx, "Business deleted", slog.String("business_id", businessID))
	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventBusinessDeleted,
		BusinessID: businessID,
		EntityID:   businessID,
	})
	return nil
}

// ClearBusinessRecords removes every product, sale and expense under the
// business while keeping the business itself. Devices use this before a
// replace-style consolidation replay so "replace" means replace, not merge.
func (s *businessService) ClearBusinessRecords(ctx context.Context, businessID, userID string) error {
	if _, err := s.requireOwner(ctx, businessID, userID); err != nil {
		return err
	}
	if err := s.productRepo.DeleteProductsByBusiness(ctx, businessID); err != nil {
		s.LogError(ctx, err, "Failed to clear products", slog.String("business_id", businessID))
		return err
	}
	if err := s.saleRepo.DeleteSalesByBusiness(ctx, businessID); err != nil {
		s.LogError(ctx, err, "Failed to clear sales", slog.String("business_id", businessID))
		return err
	}
	if err := s.expenseRepo.DeleteExpensesByBusiness(ctx, businessID); err != nil {
		s.LogError(ctx, err, "Failed to clear expenses", slog.String("business_id", businessID))
		return err
	}
	s.LogInfo(ctx, "Business records cleared", slog.String("business_id", businessID))
	return nil
}

// CreateInvite mints an invite code on the business.
func (s *businessService) CreateInvite(ctx context.Context, businessID, userID string) (*dto.InviteResponse, error) {
	business, err := s.requireOwner(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate invite code")
		return nil, err
	}
	expiry := time.Now().UTC().Add(inviteTTL)
	business.InviteCode = &code
	business.InviteExpiresAt = &expiry
	business.LastUpdatedAt = time.Now().UTC()
	business.LastUpdatedBy = userID

	if err := s.businessRepo.UpdateBusiness(ctx, *business); err != nil {
		s.LogError(ctx, err, "Failed to store invite", slog.String("business_id", businessID))
		return nil, err
	}

	s.LogInfo(ctx, "Invite created", slog.String("business_id", businessID))
	return &dto.InviteResponse{InviteCode: code, ExpiresAt: expiry}, nil
}

// RedeemInvite attaches the caller as an ACTIVE MANAGER collaborator.
// The manager-limit check is read-then-write: two concurrent redemptions can
// transiently exceed the limit. Accepted relaxed guarantee at expected volume.
func (s *businessService) RedeemInvite(ctx context.Context, code, userID string) (*domain.Business, error) {
	business, err := s.businessRepo.FindBusinessByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if business.InviteExpiresAt == nil || time.Now().UTC().After(*business.InviteExpiresAt) {
		return nil, apperrors.NewValidationFailedError("invite code has expired")
	}
	if business.IsMember(userID) {
		return business, nil
	}

	limit := domain.ManagerLimit(business.Plan)
	if business.ManagerCount() >= limit {
		return nil, apperrors.NewConflictError("collaborator limit reached for plan " + string(business.Plan))
	}

	now := time.Now().UTC()
	business.Collaborators = append(business.Collaborators, domain.Collaborator{
		UserID: userID,
		Role:   domain.RoleManager,
		Status: domain.CollaboratorActive,
		Permissions: domain.Permissions{
			CanRecordSales: true,
			CanAddProducts: true,
			CanAddExpenses: true,
			CanViewReports: true,
		},
		JoinedAt: now,
	})
	business.LastUpdatedAt = now
	business.LastUpdatedBy = userID

	if err := s.businessRepo.UpdateBusiness(ctx, *business); err != nil {
		s.LogError(ctx, err, "Failed to add collaborator", slog.String("business_id", business.BusinessID))
		return nil, err
	}

	s.LogInfo(ctx, "Invite redeemed", slog.String("business_id", business.BusinessID), slog.String("collaborator_id", userID))
	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventBusinessUpdated,
		BusinessID: business.BusinessID,
		Business:   business,
	})
	return business, nil
}

// RemoveCollaborator detaches a collaborator. The published business_updated
// event is what tells the removed device to purge its local state.
func (s *businessService) RemoveCollaborator(ctx context.Context, businessID, targetUserID, actingUserID string) (*domain.Business, error) {
	business, err := s.requireOwner(ctx, businessID, actingUserID)
	if err != nil {
		return nil, err
	}
	if targetUserID == business.OwnerID {
		return nil, apperrors.NewValidationFailedError("the owner cannot be removed from their business")
	}

	found := false
	kept := business.Collaborators[:0]
	for _, c := range business.Collaborators {
		if c.UserID == targetUserID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("collaborator " + targetUserID + " not found in business " + businessID)
	}
	business.Collaborators = kept
	business.LastUpdatedAt = time.Now().UTC()
	business.LastUpdatedBy = actingUserID

	if err := s.businessRepo.UpdateBusiness(ctx, *business); err != nil {
		s.LogError(ctx, err, "Failed to remove collaborator", slog.String("business_id", businessID))
		return nil, err
	}

	s.LogInfo(ctx, "Collaborator removed",
		slog.String("business_id", businessID),
		slog.String("collaborator_id", targetUserID))
	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventBusinessUpdated,
		BusinessID: businessID,
		Business:   business,
	})
	return business, nil
}
