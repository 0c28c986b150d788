package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// productService implements the ProductSvcFacade interface
type productService struct {
	BaseService
	businessGuard
	productRepo portsrepo.ProductRepositoryFacade
	publisher   portssvc.EventPublisher
}

// NewProductService creates a new product service with the provided dependencies
func NewProductService(productRepo portsrepo.ProductRepositoryFacade, businessRepo portsrepo.BusinessReader, publisher portssvc.EventPublisher) portssvc.ProductSvcFacade {
	return &productService{
		businessGuard: businessGuard{businessRepo: businessRepo},
		productRepo:   productRepo,
		publisher:     publisher,
	}
}

var _ portssvc.ProductSvcFacade = (*productService)(nil)

// CreateProduct inserts a product and pushes product_added to the business channel.
func (s *productService) CreateProduct(ctx context.Context, businessID string, req dto.SaveProductRequest, userID string) (*domain.Product, error) {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProductPermission(business, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	productID := req.ProductID
	if productID == "" {
		productID = uuid.NewString()
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	product := domain.Product{
		ProductID:    productID,
		BusinessID:   businessID,
		Name:         req.Name,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Quantity:     req.Quantity,
		IsActive:     isActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.productRepo.SaveProduct(ctx, product); err != nil {
		s.LogError(ctx, err, "Failed to save product", slog.String("product_id", productID))
		return nil, err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventProductAdded,
		BusinessID: businessID,
		Product:    &product,
	})
	return &product, nil
}

// UpdateProduct overwrites product fields and pushes product_updated.
func (s *productService) UpdateProduct(ctx context.Context, businessID, productID string, req dto.SaveProductRequest, userID string) (*domain.Product, error) {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProductPermission(business, userID); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.BusinessID != businessID {
		return nil, apperrors.NewNotFoundError("product " + productID + " not found in business " + businessID)
	}

	product.Name = req.Name
	product.CostPrice = req.CostPrice
	product.SellingPrice = req.SellingPrice
	product.Quantity = req.Quantity
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.LastUpdatedAt = time.Now().UTC()
	product.LastUpdatedBy = userID

	if err := s.productRepo.UpdateProduct(ctx, *product); err != nil {
		s.LogError(ctx, err, "Failed to update product", slog.String("product_id", productID))
		return nil, err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventProductUpdated,
		BusinessID: businessID,
		Product:    product,
	})
	return product, nil
}

// DeleteProduct removes a product and pushes product_deleted.
func (s *productService) DeleteProduct(ctx context.Context, businessID, productID, userID string) error {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return err
	}
	if err := s.requireProductPermission(business, userID); err != nil {
		return err
	}

	product, err := s.productRepo.FindProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product.BusinessID != businessID {
		return apperrors.NewNotFoundError("product " + productID + " not found in business " + businessID)
	}

	if err := s.productRepo.DeleteProduct(ctx, productID); err != nil {
		s.LogError(ctx, err, "Failed to delete product", slog.String("product_id", productID))
		return err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventProductDeleted,
		BusinessID: businessID,
		EntityID:   productID,
	})
	return nil
}

// ListProducts returns every product under the business.
func (s *productService) ListProducts(ctx context.Context, businessID, userID string) ([]domain.Product, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListProductsByBusiness(ctx, businessID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list products", slog.String("business_id", businessID))
		return nil, err
	}
	if products == nil {
		return []domain.Product{}, nil
	}
	return products, nil
}

// UpsertProducts applies a device mirror batch by id. No events are published:
// the batch is the originating device echoing its own optimistic writes, and
// other devices converge on resume reconciliation.
func (s *productService) UpsertProducts(ctx context.Context, businessID string, products []domain.Product, userID string) (int, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}
	if err := s.productRepo.UpsertProducts(ctx, businessID, products); err != nil {
		s.LogError(ctx, err, "Failed to upsert products", slog.String("business_id", businessID))
		return 0, err
	}
	return len(products), nil
}

func (s *productService) requireProductPermission(business *domain.Business, userID string) error {
	if business.OwnerID == userID {
		return nil
	}
	collab, ok := business.FindCollaborator(userID)
	if !ok || collab.Status != domain.CollaboratorActive || !collab.Permissions.CanAddProducts {
		return apperrors.NewForbiddenError("user may not modify products in business " + business.BusinessID)
	}
	return nil
}
