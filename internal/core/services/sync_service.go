package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
)

// syncService is the bulk reconciliation engine behind the sync endpoint. It
// reconciles a device's whole offline dataset against the caller's cloud
// account in one transaction-like pass: validation gates first (no writes),
// then idempotent execution that is safe to re-run after a partial failure.
type syncService struct {
	BaseService
	businessRepo portsrepo.BusinessRepositoryFacade
	productRepo  portsrepo.ProductRepositoryFacade
	saleRepo     portsrepo.SaleRepositoryFacade
	expenseRepo  portsrepo.ExpenseRepositoryFacade
}

// NewSyncService creates the reconciliation service.
func NewSyncService(
	businessRepo portsrepo.BusinessRepositoryFacade,
	productRepo portsrepo.ProductRepositoryFacade,
	saleRepo portsrepo.SaleRepositoryFacade,
	expenseRepo portsrepo.ExpenseRepositoryFacade,
) portssvc.SyncSvcFacade {
	return &syncService{
		businessRepo: businessRepo,
		productRepo:  productRepo,
		saleRepo:     saleRepo,
		expenseRepo:  expenseRepo,
	}
}

var _ portssvc.SyncSvcFacade = (*syncService)(nil)

// Reconcile runs the four-phase pass described on the facade.
func (s *syncService) Reconcile(ctx context.Context, userID string, snap domain.LocalSnapshot) (*domain.SyncResult, error) {
	// Phase 1: pruning, only when an allow-list is supplied. Enforces plan
	// downgrades; idempotent and irreversible.
	if snap.AllowedBusinessIDs != nil {
		removed, err := s.businessRepo.DeleteBusinessesNotIn(ctx, userID, snap.AllowedBusinessIDs)
		if err != nil {
			s.LogError(ctx, err, "Pruning pass failed", slog.String("user_id", userID))
			return nil, err
		}
		if removed > 0 {
			s.LogInfo(ctx, "Pruned businesses outside allow-list",
				slog.Int("removed", removed), slog.String("user_id", userID))
		}
	}

	owned, err := s.businessRepo.ListBusinessesByOwner(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list owned businesses", slog.String("user_id", userID))
		return nil, err
	}
	ownedByID := make(map[string]*domain.Business, len(owned))
	ownedByName := make(map[string]*domain.Business, len(owned))
	for i := range owned {
		ownedByID[owned[i].BusinessID] = &owned[i]
		ownedByName[owned[i].Name] = &owned[i]
	}

	// Phase 2: collision detection. A local business whose id is already
	// claimed by the caller is the same business re-synced, never a
	// collision. Any name match without an explicit resolution aborts the
	// whole pass before a single write.
	var conflicts []domain.NameConflict
	matches := make(map[string]*domain.Business)
	for i := range snap.Businesses {
		local := &snap.Businesses[i]
		if _, claimed := ownedByID[local.BusinessID]; claimed {
			continue
		}
		cloud, nameTaken := ownedByName[local.Name]
		if !nameTaken {
			continue
		}
		matches[local.BusinessID] = cloud
		if _, resolved := snap.Resolutions[local.BusinessID]; !resolved {
			conflicts = append(conflicts, domain.NameConflict{
				Local: domain.BusinessRef{BusinessID: local.BusinessID, Name: local.Name},
				Cloud: domain.BusinessRef{BusinessID: cloud.BusinessID, Name: cloud.Name},
			})
		}
	}
	if len(conflicts) > 0 {
		return nil, &apperrors.NameCollisionError{Conflicts: conflicts}
	}

	// Phase 3: plan-limit projection, computed from the snapshot read above.
	// Two concurrent passes from the same account can transiently exceed the
	// limit; accepted, since syncs are owner-initiated.
	newCount := 0
	for i := range snap.Businesses {
		local := &snap.Businesses[i]
		if _, claimed := ownedByID[local.BusinessID]; claimed {
			continue
		}
		if _, collided := matches[local.BusinessID]; collided {
			if snap.Resolutions[local.BusinessID] == domain.ResolutionKeepSeparate {
				newCount++
			}
			continue
		}
		newCount++
	}
	projected := len(owned) + newCount
	limit := domain.BusinessLimit(s.effectivePlan(owned, snap.Businesses))
	if projected > limit {
		return nil, &apperrors.PlanLimitError{
			Limit:              limit,
			CurrentCount:       len(owned),
			NewCount:           projected,
			ExistingBusinesses: owned,
		}
	}

	// Phase 4: execution. Everything below is upsert-by-id, so a failure
	// mid-pass is repaired by re-running the same payload; no rollback.
	counts := domain.SyncCounts{}
	reconciled := make([]domain.Business, 0, len(snap.Businesses))
	for i := range snap.Businesses {
		local := snap.Businesses[i]
		target, err := s.resolveBusiness(ctx, userID, local, ownedByID, ownedByName, matches, snap.Resolutions)
		if err != nil {
			s.LogError(ctx, err, "Sync execution failed",
				slog.String("local_business_id", local.BusinessID), slog.String("user_id", userID))
			return nil, err
		}
		reconciled = append(reconciled, *target)

		if err := s.applyChildRecords(ctx, local.BusinessID, target.BusinessID, snap, &counts); err != nil {
			s.LogError(ctx, err, "Child record upsert failed",
				slog.String("local_business_id", local.BusinessID),
				slog.String("target_business_id", target.BusinessID))
			return nil, err
		}
	}

	s.LogInfo(ctx, "Sync reconciled",
		slog.String("user_id", userID),
		slog.Int("businesses", len(reconciled)),
		slog.Int("products", counts.Products),
		slog.Int("sales", counts.Sales),
		slog.Int("expenses", counts.Expenses))
	return &domain.SyncResult{Businesses: reconciled, Counts: counts}, nil
}

// effectivePlan picks the account's plan from the highest tier carried by any
// owned or incoming business; identity-service plan lookups are outside this
// core, so the business records are the source of truth.
func (s *syncService) effectivePlan(owned []domain.Business, incoming []domain.Business) domain.PlanTier {
	plan := domain.PlanFree
	for i := range owned {
		plan = domain.HigherPlan(plan, owned[i].Plan)
	}
	for i := range incoming {
		plan = domain.HigherPlan(plan, incoming[i].Plan)
	}
	return plan
}

// resolveBusiness applies the business-level resolution and returns the write
// target for the local business's child records.
func (s *syncService) resolveBusiness(
	ctx context.Context,
	userID string,
	local domain.Business,
	ownedByID, ownedByName map[string]*domain.Business,
	matches map[string]*domain.Business,
	resolutions map[string]domain.Resolution,
) (*domain.Business, error) {
	// Already claimed by the caller under the same id: reuse, making a
	// retried pass a no-op at the business level.
	if existing, ok := ownedByID[local.BusinessID]; ok {
		return existing, nil
	}

	cloud, collided := matches[local.BusinessID]
	if !collided {
		created := s.claim(local, userID)
		if err := s.businessRepo.SaveBusiness(ctx, created); err != nil {
			return nil, err
		}
		ownedByID[created.BusinessID] = &created
		ownedByName[created.Name] = &created
		return &created, nil
	}

	switch resolutions[local.BusinessID] {
	case domain.ResolutionMerge:
		// Reuse the cloud business untouched; only child records flow in.
		return cloud, nil

	case domain.ResolutionReplace:
		if err := s.productRepo.DeleteProductsByBusiness(ctx, cloud.BusinessID); err != nil {
			return nil, err
		}
		if err := s.saleRepo.DeleteSalesByBusiness(ctx, cloud.BusinessID); err != nil {
			return nil, err
		}
		if err := s.expenseRepo.DeleteExpensesByBusiness(ctx, cloud.BusinessID); err != nil {
			return nil, err
		}
		replaced := s.claim(local, userID)
		replaced.BusinessID = cloud.BusinessID
		replaced.CreatedAt = cloud.CreatedAt
		replaced.CreatedBy = cloud.CreatedBy
		if err := s.businessRepo.UpdateBusiness(ctx, replaced); err != nil {
			return nil, err
		}
		*cloud = replaced
		return cloud, nil

	case domain.ResolutionKeepSeparate:
		created := s.claim(local, userID)
		created.Name = disambiguateName(local.Name, ownedByName)
		if err := s.businessRepo.SaveBusiness(ctx, created); err != nil {
			return nil, err
		}
		ownedByID[created.BusinessID] = &created
		ownedByName[created.Name] = &created
		return &created, nil

	default:
		// Unreachable: phase 2 guarantees a resolution for every match.
		return nil, fmt.Errorf("no resolution for colliding business %s", local.BusinessID)
	}
}

// claim turns a local business snapshot into a cloud business owned by the
// caller, seeded with a single OWNER collaborator.
func (s *syncService) claim(local domain.Business, userID string) domain.Business {
	now := time.Now().UTC()
	claimed := local
	claimed.OwnerID = userID
	claimed.Collaborators = []domain.Collaborator{domain.NewOwnerCollaborator(userID, now)}
	claimed.InviteCode = nil
	claimed.InviteExpiresAt = nil
	if claimed.Plan == "" {
		claimed.Plan = domain.PlanFree
	}
	if claimed.CreatedAt.IsZero() {
		claimed.CreatedAt = now
	}
	if claimed.CreatedBy == "" {
		claimed.CreatedBy = userID
	}
	claimed.LastUpdatedAt = now
	claimed.LastUpdatedBy = userID
	return claimed
}

// applyChildRecords upserts every child record whose local businessId matches
// localID into the resolved target business.
func (s *syncService) applyChildRecords(ctx context.Context, localID, targetID string, snap domain.LocalSnapshot, counts *domain.SyncCounts) error {
	var products []domain.Product
	for _, p := range snap.Products {
		if p.BusinessID == localID {
			p.BusinessID = targetID
			products = append(products, p)
		}
	}
	if len(products) > 0 {
		if err := s.productRepo.UpsertProducts(ctx, targetID, products); err != nil {
			return err
		}
		counts.Products += len(products)
	}

	var sales []domain.Sale
	for _, sl := range snap.Sales {
		if sl.BusinessID == localID {
			sl.BusinessID = targetID
			sales = append(sales, sl)
		}
	}
	if len(sales) > 0 {
		if err := s.saleRepo.UpsertSales(ctx, targetID, sales); err != nil {
			return err
		}
		counts.Sales += len(sales)
	}

	var expenses []domain.Expense
	for _, e := range snap.Expenses {
		if e.BusinessID == localID {
			e.BusinessID = targetID
			expenses = append(expenses, e)
		}
	}
	if len(expenses) > 0 {
		if err := s.expenseRepo.UpsertExpenses(ctx, targetID, expenses); err != nil {
			return err
		}
		counts.Expenses += len(expenses)
	}
	return nil
}

// disambiguateName appends " (Local)" to a colliding name, counting up until
// the result is free among the caller's businesses.
func disambiguateName(name string, taken map[string]*domain.Business) string {
	candidate := name + " (Local)"
	for n := 2; ; n++ {
		if _, exists := taken[candidate]; !exists {
			return candidate
		}
		candidate = fmt.Sprintf("%s (Local %d)", name, n)
	}
}
