package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	portssvc "github.com/tradekeeper/trade_keeper_app/internal/core/ports/services"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
	"github.com/tradekeeper/trade_keeper_app/internal/utils/pagination"
)

const defaultSalePageSize = 100

// saleService implements the SaleSvcFacade interface
type saleService struct {
	BaseService
	businessGuard
	saleRepo    portsrepo.SaleRepositoryFacade
	productRepo portsrepo.ProductRepositoryFacade
	publisher   portssvc.EventPublisher
}

// NewSaleService creates a new sale service with the provided dependencies
func NewSaleService(saleRepo portsrepo.SaleRepositoryFacade, productRepo portsrepo.ProductRepositoryFacade, businessRepo portsrepo.BusinessReader, publisher portssvc.EventPublisher) portssvc.SaleSvcFacade {
	return &saleService{
		businessGuard: businessGuard{businessRepo: businessRepo},
		saleRepo:      saleRepo,
		productRepo:   productRepo,
		publisher:     publisher,
	}
}

var _ portssvc.SaleSvcFacade = (*saleService)(nil)

// RecordSale snapshots the product's name and selling price, computes revenue,
// cost and profit once, adjusts the product's stock counters, and pushes
// sale_added plus product_updated to the business channel.
func (s *saleService) RecordSale(ctx context.Context, businessID string, req dto.RecordSaleRequest, userID string) (*domain.Sale, error) {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != userID {
		collab, ok := business.FindCollaborator(userID)
		if !ok || collab.Status != domain.CollaboratorActive || !collab.Permissions.CanRecordSales {
			return nil, apperrors.NewForbiddenError("user may not record sales in business " + businessID)
		}
	}

	product, err := s.productRepo.FindProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product.BusinessID != businessID {
		return nil, apperrors.NewNotFoundError("product " + req.ProductID + " not found in business " + businessID)
	}

	now := time.Now().UTC()
	saleID := req.SaleID
	if saleID == "" {
		saleID = uuid.NewString()
	}
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}

	quantity := decimal.NewFromInt(req.Quantity)
	revenue := product.SellingPrice.Mul(quantity)
	cost := product.CostPrice.Mul(quantity)
	sale := domain.Sale{
		SaleID:      saleID,
		BusinessID:  businessID,
		ProductID:   product.ProductID,
		ProductName: product.Name,
		UnitPrice:   product.SellingPrice,
		Quantity:    req.Quantity,
		Revenue:     revenue,
		Cost:        cost,
		Profit:      revenue.Sub(cost),
		Date:        date,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.saleRepo.SaveSale(ctx, sale); err != nil {
		s.LogError(ctx, err, "Failed to save sale", slog.String("sale_id", saleID))
		return nil, err
	}

	// Stock is a device-visible counter, clamped at zero rather than
	// rejected: offline devices may legitimately oversell a stale quantity.
	product.Quantity -= req.Quantity
	if product.Quantity < 0 {
		product.Quantity = 0
	}
	product.TotalSold += req.Quantity
	product.LastUpdatedAt = now
	product.LastUpdatedBy = userID
	if err := s.productRepo.UpdateProduct(ctx, *product); err != nil {
		s.LogError(ctx, err, "Failed to update product counters after sale",
			slog.String("sale_id", saleID), slog.String("product_id", product.ProductID))
		return nil, err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventSaleAdded,
		BusinessID: businessID,
		Sale:       &sale,
	})
	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventProductUpdated,
		BusinessID: businessID,
		Product:    product,
	})
	return &sale, nil
}

// ListSales pages through a business's sales, newest first.
func (s *saleService) ListSales(ctx context.Context, businessID, userID string, limit int, nextToken string) ([]domain.Sale, string, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultSalePageSize
	}

	var from time.Time
	var fromSaleID string
	if nextToken != "" {
		decoded, saleID, err := pagination.DecodeDateIDToken(nextToken)
		if err != nil {
			return nil, "", apperrors.NewValidationFailedError(err.Error())
		}
		from, fromSaleID = decoded, saleID
	}

	sales, err := s.saleRepo.ListSalesByBusiness(ctx, businessID, limit+1, from, fromSaleID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list sales", slog.String("business_id", businessID))
		return nil, "", err
	}

	token := ""
	if len(sales) > limit {
		sales = sales[:limit]
		last := sales[len(sales)-1]
		token = pagination.EncodeDateIDToken(last.CreatedAt, last.SaleID)
	}
	return sales, token, nil
}

// UpsertSales applies a device mirror batch by id.
func (s *saleService) UpsertSales(ctx context.Context, businessID string, sales []domain.Sale, userID string) (int, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return 0, err
	}
	if len(sales) == 0 {
		return 0, nil
	}
	if err := s.saleRepo.UpsertSales(ctx, businessID, sales); err != nil {
		s.LogError(ctx, err, "Failed to upsert sales", slog.String("business_id", businessID))
		return 0, err
	}
	return len(sales), nil
}
