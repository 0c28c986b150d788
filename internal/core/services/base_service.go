package services

import (
	"context"
	"log/slog"

	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	portsrepo "github.com/tradekeeper/trade_keeper_app/internal/core/ports/repositories"
	"github.com/tradekeeper/trade_keeper_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// businessGuard resolves a business and checks the caller's standing in it.
// Embedded by every service that operates inside a business.
type businessGuard struct {
	businessRepo portsrepo.BusinessReader
}

// requireMember returns the business if the caller owns it or appears in its
// collaborator list.
func (g businessGuard) requireMember(ctx context.Context, businessID, userID string) (*domain.Business, error) {
	business, err := g.businessRepo.FindBusinessByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.IsMember(userID) {
		return nil, apperrors.NewForbiddenError("user is not a member of business " + businessID)
	}
	return business, nil
}

// requireOwner returns the business only if the caller owns it.
func (g businessGuard) requireOwner(ctx context.Context, businessID, userID string) (*domain.Business, error) {
	business, err := g.businessRepo.FindBusinessByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if business.OwnerID != userID {
		return nil, apperrors.NewForbiddenError("user does not own business " + businessID)
	}
	return business, nil
}
