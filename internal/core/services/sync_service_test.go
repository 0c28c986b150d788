package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/core/services"
)

type SyncServiceTestSuite struct {
	suite.Suite
	mockBusinessRepo *MockBusinessRepository
	mockProductRepo  *MockProductRepository
	mockSaleRepo     *MockSaleRepository
	mockExpenseRepo  *MockExpenseRepository
	service          portssvc.SyncSvcFacade
}

func (s *SyncServiceTestSuite) SetupTest() {
	s.mockBusinessRepo = new(MockBusinessRepository)
	s.mockProductRepo = new(MockProductRepository)
	s.mockSaleRepo = new(MockSaleRepository)
	s.mockExpenseRepo = new(MockExpenseRepository)
	s.service = services.NewSyncService(s.mockBusinessRepo, s.mockProductRepo, s.mockSaleRepo, s.mockExpenseRepo)
}

func testBusiness(id, name, ownerID string, plan domain.PlanTier) domain.Business {
	now := time.Now().UTC()
	return domain.Business{
		BusinessID:    id,
		Name:          name,
		CurrencyCode:  "NGN",
		Plan:          plan,
		OwnerID:       ownerID,
		Collaborators: []domain.Collaborator{domain.NewOwnerCollaborator(ownerID, now)},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     ownerID,
			LastUpdatedAt: now,
			LastUpdatedBy: ownerID,
		},
	}
}

func testProduct(id, businessID, name string) domain.Product {
	return domain.Product{
		ProductID:    id,
		BusinessID:   businessID,
		Name:         name,
		CostPrice:    decimal.NewFromInt(100),
		SellingPrice: decimal.NewFromInt(150),
		Quantity:     10,
		IsActive:     true,
	}
}

func (s *SyncServiceTestSuite) TestReconcile_FirstSyncCreatesBusinesses() {
	ctx := context.Background()
	userID := uuid.NewString()
	local := testBusiness(uuid.NewString(), "Kemi Stores", "", domain.PlanFree)
	product := testProduct(uuid.NewString(), local.BusinessID, "Rice 50kg")

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{}, nil).Once()
	s.mockBusinessRepo.On("SaveBusiness", ctx, mock.MatchedBy(func(b domain.Business) bool {
		return b.BusinessID == local.BusinessID && b.OwnerID == userID && len(b.Collaborators) == 1
	})).Return(nil).Once()
	s.mockProductRepo.On("UpsertProducts", ctx, local.BusinessID, mock.MatchedBy(func(ps []domain.Product) bool {
		return len(ps) == 1 && ps[0].BusinessID == local.BusinessID
	})).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{local},
		Products:   []domain.Product{product},
	})

	s.Require().NoError(err)
	s.Require().Len(result.Businesses, 1)
	s.Equal(userID, result.Businesses[0].OwnerID)
	s.Equal(1, result.Counts.Products)
	s.mockBusinessRepo.AssertExpectations(s.T())
	s.mockProductRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_SameIDIsIdempotent() {
	ctx := context.Background()
	userID := uuid.NewString()
	owned := testBusiness(uuid.NewString(), "Kemi Stores", userID, domain.PlanFree)
	local := owned

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{owned}, nil).Once()
	s.mockSaleRepo.On("UpsertSales", ctx, owned.BusinessID, mock.Anything).Return(nil).Once()

	sale := domain.Sale{SaleID: uuid.NewString(), BusinessID: owned.BusinessID, Quantity: 2}
	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{local},
		Sales:      []domain.Sale{sale},
	})

	s.Require().NoError(err)
	s.Equal(1, result.Counts.Sales)
	// Re-synced business is reused, never re-created.
	s.mockBusinessRepo.AssertNotCalled(s.T(), "SaveBusiness", mock.Anything, mock.Anything)
	s.mockBusinessRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_UnresolvedCollisionAbortsBeforeWrites() {
	ctx := context.Background()
	userID := uuid.NewString()
	cloud := testBusiness(uuid.NewString(), "Kemi Stores", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Kemi Stores", "", domain.PlanFree)

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{cloud}, nil).Once()

	_, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{local},
		Products:   []domain.Product{testProduct(uuid.NewString(), local.BusinessID, "Beans")},
	})

	s.Require().Error(err)
	var collisionErr *apperrors.NameCollisionError
	s.Require().ErrorAs(err, &collisionErr)
	s.Require().Len(collisionErr.Conflicts, 1)
	s.Equal(local.BusinessID, collisionErr.Conflicts[0].Local.BusinessID)
	s.Equal(cloud.BusinessID, collisionErr.Conflicts[0].Cloud.BusinessID)

	s.mockBusinessRepo.AssertNotCalled(s.T(), "SaveBusiness", mock.Anything, mock.Anything)
	s.mockProductRepo.AssertNotCalled(s.T(), "UpsertProducts", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SyncServiceTestSuite) TestReconcile_KeepSeparateRenames() {
	ctx := context.Background()
	userID := uuid.NewString()
	cloud := testBusiness(uuid.NewString(), "Kemi Stores", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Kemi Stores", "", domain.PlanFree)

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{cloud}, nil).Once()
	s.mockBusinessRepo.On("SaveBusiness", ctx, mock.MatchedBy(func(b domain.Business) bool {
		return b.BusinessID == local.BusinessID && b.Name == "Kemi Stores (Local)"
	})).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses:  []domain.Business{local},
		Resolutions: map[string]domain.Resolution{local.BusinessID: domain.ResolutionKeepSeparate},
	})

	s.Require().NoError(err)
	s.Require().Len(result.Businesses, 1)
	s.Equal("Kemi Stores (Local)", result.Businesses[0].Name)
	s.Equal(local.BusinessID, result.Businesses[0].BusinessID)
	s.mockBusinessRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_MergePoursRecordsIntoCloudBusiness() {
	ctx := context.Background()
	userID := uuid.NewString()
	cloud := testBusiness(uuid.NewString(), "Kemi Stores", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Kemi Stores", "", domain.PlanFree)
	product := testProduct(uuid.NewString(), local.BusinessID, "Rice 50kg")

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{cloud}, nil).Once()
	s.mockProductRepo.On("UpsertProducts", ctx, cloud.BusinessID, mock.MatchedBy(func(ps []domain.Product) bool {
		return len(ps) == 1 && ps[0].BusinessID == cloud.BusinessID && ps[0].ProductID == product.ProductID
	})).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses:  []domain.Business{local},
		Products:    []domain.Product{product},
		Resolutions: map[string]domain.Resolution{local.BusinessID: domain.ResolutionMerge},
	})

	s.Require().NoError(err)
	s.Require().Len(result.Businesses, 1)
	s.Equal(cloud.BusinessID, result.Businesses[0].BusinessID)
	s.Equal(1, result.Counts.Products)
	s.mockBusinessRepo.AssertNotCalled(s.T(), "SaveBusiness", mock.Anything, mock.Anything)
	s.mockProductRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_ReplaceClearsCloudChildren() {
	ctx := context.Background()
	userID := uuid.NewString()
	cloud := testBusiness(uuid.NewString(), "Kemi Stores", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Kemi Stores", "", domain.PlanFree)
	local.CurrencyCode = "GHS"

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{cloud}, nil).Once()
	s.mockProductRepo.On("DeleteProductsByBusiness", ctx, cloud.BusinessID).Return(nil).Once()
	s.mockSaleRepo.On("DeleteSalesByBusiness", ctx, cloud.BusinessID).Return(nil).Once()
	s.mockExpenseRepo.On("DeleteExpensesByBusiness", ctx, cloud.BusinessID).Return(nil).Once()
	s.mockBusinessRepo.On("UpdateBusiness", ctx, mock.MatchedBy(func(b domain.Business) bool {
		// Cloud identity survives; local fields overwrite the rest.
		return b.BusinessID == cloud.BusinessID && b.OwnerID == userID && b.CurrencyCode == "GHS"
	})).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses:  []domain.Business{local},
		Resolutions: map[string]domain.Resolution{local.BusinessID: domain.ResolutionReplace},
	})

	s.Require().NoError(err)
	s.Require().Len(result.Businesses, 1)
	s.Equal(cloud.BusinessID, result.Businesses[0].BusinessID)
	s.Equal("GHS", result.Businesses[0].CurrencyCode)
	s.mockBusinessRepo.AssertExpectations(s.T())
	s.mockProductRepo.AssertExpectations(s.T())
	s.mockSaleRepo.AssertExpectations(s.T())
	s.mockExpenseRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_PlanLimitBlocksNewBusinesses() {
	ctx := context.Background()
	userID := uuid.NewString()
	ownedA := testBusiness(uuid.NewString(), "Shop A", userID, domain.PlanFree)
	ownedB := testBusiness(uuid.NewString(), "Shop B", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Shop C", "", domain.PlanFree)

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{ownedA, ownedB}, nil).Once()

	_, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{local},
	})

	s.Require().Error(err)
	var limitErr *apperrors.PlanLimitError
	s.Require().ErrorAs(err, &limitErr)
	s.Equal(2, limitErr.Limit)
	s.Equal(2, limitErr.CurrentCount)
	s.Equal(3, limitErr.NewCount)
	s.Len(limitErr.ExistingBusinesses, 2)
	s.mockBusinessRepo.AssertNotCalled(s.T(), "SaveBusiness", mock.Anything, mock.Anything)
}

func (s *SyncServiceTestSuite) TestReconcile_HigherPlanRaisesLimit() {
	ctx := context.Background()
	userID := uuid.NewString()
	ownedA := testBusiness(uuid.NewString(), "Shop A", userID, domain.PlanUnlimited)
	ownedB := testBusiness(uuid.NewString(), "Shop B", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Shop C", "", domain.PlanFree)

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{ownedA, ownedB}, nil).Once()
	s.mockBusinessRepo.On("SaveBusiness", ctx, mock.Anything).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{local},
	})

	s.Require().NoError(err)
	s.Len(result.Businesses, 1)
	s.mockBusinessRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_MergeDoesNotCountTowardLimit() {
	ctx := context.Background()
	userID := uuid.NewString()
	ownedA := testBusiness(uuid.NewString(), "Shop A", userID, domain.PlanFree)
	ownedB := testBusiness(uuid.NewString(), "Shop B", userID, domain.PlanFree)
	local := testBusiness(uuid.NewString(), "Shop A", "", domain.PlanFree)

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{ownedA, ownedB}, nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses:  []domain.Business{local},
		Resolutions: map[string]domain.Resolution{local.BusinessID: domain.ResolutionMerge},
	})

	s.Require().NoError(err)
	s.Equal(ownedA.BusinessID, result.Businesses[0].BusinessID)
}

func (s *SyncServiceTestSuite) TestReconcile_AllowListPrunesFirst() {
	ctx := context.Background()
	userID := uuid.NewString()
	kept := testBusiness(uuid.NewString(), "Keeper", userID, domain.PlanFree)
	keep := []string{kept.BusinessID}

	s.mockBusinessRepo.On("DeleteBusinessesNotIn", ctx, userID, keep).Return(1, nil).Once()
	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{kept}, nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses:         []domain.Business{kept},
		AllowedBusinessIDs: keep,
	})

	s.Require().NoError(err)
	s.Len(result.Businesses, 1)
	s.mockBusinessRepo.AssertExpectations(s.T())
}

func (s *SyncServiceTestSuite) TestReconcile_ChildRecordsFollowOwnBusinessOnly() {
	ctx := context.Background()
	userID := uuid.NewString()
	localA := testBusiness(uuid.NewString(), "Shop A", "", domain.PlanFree)
	localB := testBusiness(uuid.NewString(), "Shop B", "", domain.PlanFree)
	productA := testProduct(uuid.NewString(), localA.BusinessID, "Rice")
	productB := testProduct(uuid.NewString(), localB.BusinessID, "Beans")

	s.mockBusinessRepo.On("ListBusinessesByOwner", ctx, userID).Return([]domain.Business{}, nil).Once()
	s.mockBusinessRepo.On("SaveBusiness", ctx, mock.Anything).Return(nil).Twice()
	s.mockProductRepo.On("UpsertProducts", ctx, localA.BusinessID, mock.MatchedBy(func(ps []domain.Product) bool {
		return len(ps) == 1 && ps[0].ProductID == productA.ProductID
	})).Return(nil).Once()
	s.mockProductRepo.On("UpsertProducts", ctx, localB.BusinessID, mock.MatchedBy(func(ps []domain.Product) bool {
		return len(ps) == 1 && ps[0].ProductID == productB.ProductID
	})).Return(nil).Once()

	result, err := s.service.Reconcile(ctx, userID, domain.LocalSnapshot{
		Businesses: []domain.Business{localA, localB},
		Products:   []domain.Product{productA, productB},
	})

	s.Require().NoError(err)
	s.Equal(2, result.Counts.Products)
	s.mockProductRepo.AssertExpectations(s.T())
}

func TestSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
