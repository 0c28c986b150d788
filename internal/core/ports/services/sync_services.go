package services

import (
	"context"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// SyncSvcFacade is the bulk reconciliation engine behind the sync endpoint.
type SyncSvcFacade interface {
	// Reconcile applies a device's offline dataset against the caller's cloud
	// account in one pass: prune (if an allow-list was supplied), detect name
	// collisions, project plan limits, then execute resolutions and
	// upsert-by-id every child record. Collision and limit failures are
	// returned as *apperrors.NameCollisionError / *apperrors.PlanLimitError
	// before any write beyond pruning; execution failures abort without
	// rollback and the same payload can be retried to converge.
	Reconcile(ctx context.Context, userID string, snapshot domain.LocalSnapshot) (*domain.SyncResult, error)
}
