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

// expenseService implements the ExpenseSvcFacade interface
type expenseService struct {
	BaseService
	businessGuard
	expenseRepo portsrepo.ExpenseRepositoryFacade
	publisher   portssvc.EventPublisher
}

// NewExpenseService creates a new expense service with the provided dependencies
func NewExpenseService(expenseRepo portsrepo.ExpenseRepositoryFacade, businessRepo portsrepo.BusinessReader, publisher portssvc.EventPublisher) portssvc.ExpenseSvcFacade {
	return &expenseService{
		businessGuard: businessGuard{businessRepo: businessRepo},
		expenseRepo:   expenseRepo,
		publisher:     publisher,
	}
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// AddExpense records an expense and pushes expense_added to the business channel.
func (s *expenseService) AddExpense(ctx context.Context, businessID string, req dto.AddExpenseRequest, userID string) (*domain.Expense, error) {
	business, err := s.requireMember(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != userID {
		collab, ok := business.FindCollaborator(userID)
		if !ok || collab.Status != domain.CollaboratorActive || !collab.Permissions.CanAddExpenses {
			return nil, apperrors.NewForbiddenError("user may not add expenses in business " + businessID)
		}
	}

	now := time.Now().UTC()
	expenseID := req.ExpenseID
	if expenseID == "" {
		expenseID = uuid.NewString()
	}
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	expense := domain.Expense{
		ExpenseID:  expenseID,
		BusinessID: businessID,
		Amount:     req.Amount,
		Category:   req.Category,
		Date:       date,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("expense_id", expenseID))
		return nil, err
	}

	s.publisher.Publish(domain.ChangeEvent{
		Type:       domain.EventExpenseAdded,
		BusinessID: businessID,
		Expense:    &expense,
	})
	return &expense, nil
}

// ListExpenses returns every expense under the business.
func (s *expenseService) ListExpenses(ctx context.Context, businessID, userID string) ([]domain.Expense, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListExpensesByBusiness(ctx, businessID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenses", slog.String("business_id", businessID))
		return nil, err
	}
	if expenses == nil {
		return []domain.Expense{}, nil
	}
	return expenses, nil
}

// UpsertExpenses applies a device mirror batch by id.
func (s *expenseService) UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense, userID string) (int, error) {
	if _, err := s.requireMember(ctx, businessID, userID); err != nil {
		return 0, err
	}
	if len(expenses) == 0 {
		return 0, nil
	}
	if err := s.expenseRepo.UpsertExpenses(ctx, businessID, expenses); err != nil {
		s.LogError(ctx, err, "Failed to upsert expenses", slog.String("business_id", businessID))
		return 0, err
	}
	return len(expenses), nil
}
