package replica

import (
	"context"
	"log/slog"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// SyncNow submits the device's local businesses, with their records, for
// bulk reconciliation. resolutions carries the user's decisions for
// collisions reported by an earlier attempt; conflict errors
// (*apperrors.NameCollisionError, *apperrors.PlanLimitError) come back
// unchanged so the caller can prompt and retry.
//
// On success the reconciled cloud state wins wholesale: submitted businesses
// are marked claimed, businesses the reconciliation consumed (merges) are
// purged, and surviving businesses have their record sets replaced with the
// cloud copy, which now contains everything the device just pushed.
func (r *Replica) SyncNow(ctx context.Context, gateway Gateway, resolutions map[string]domain.Resolution) (*domain.SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	locals, err := r.store.ListBusinesses(false)
	if err != nil {
		return nil, err
	}
	if len(locals) == 0 {
		return &domain.SyncResult{}, nil
	}

	req := dto.SyncRequest{Businesses: locals, Resolutions: resolutions}
	for i := range locals {
		id := locals[i].BusinessID
		products, err := r.store.ListProducts(id)
		if err != nil {
			return nil, err
		}
		sales, err := r.store.ListSales(id)
		if err != nil {
			return nil, err
		}
		expenses, err := r.store.ListExpenses(id)
		if err != nil {
			return nil, err
		}
		req.Products = append(req.Products, products...)
		req.Sales = append(req.Sales, sales...)
		req.Expenses = append(req.Expenses, expenses...)
	}

	result, err := gateway.Sync(ctx, req)
	if err != nil {
		return nil, err
	}

	resultIDs := make(map[string]bool, len(result.Businesses))
	for i := range result.Businesses {
		resultIDs[result.Businesses[i].BusinessID] = true
	}

	// Flip claimed flags before touching data, so an interrupted apply
	// leaves the claim state matching what the cloud accepted.
	for i := range locals {
		id := locals[i].BusinessID
		if resultIDs[id] {
			if err := r.store.MarkClaimed(id); err != nil {
				return nil, err
			}
			continue
		}
		// Consumed by a merge resolution, its records now live under the
		// target business.
		r.logger.Info("Local business consumed by reconciliation, purging",
			slog.String("business_id", id))
		if err := r.store.PurgeBusiness(id); err != nil {
			return nil, err
		}
	}

	for i := range result.Businesses {
		if err := r.store.PutBusiness(result.Businesses[i], true); err != nil {
			return nil, err
		}
	}

	for i := range locals {
		id := locals[i].BusinessID
		if resultIDs[id] {
			if err := r.replaceRecords(ctx, gateway, id); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// replaceRecords swaps the local record sets of a business for the cloud
// copy. Unlike the resume overlay, nothing local survives: the device just
// submitted its full dataset, so the cloud copy is a superset of it.
func (r *Replica) replaceRecords(ctx context.Context, gateway Gateway, businessID string) error {
	products, err := gateway.ListProducts(ctx, businessID)
	if err != nil {
		return err
	}
	if err := r.store.ReplaceProducts(businessID, products); err != nil {
		return err
	}

	sales, err := gateway.ListSales(ctx, businessID)
	if err != nil {
		return err
	}
	if err := r.store.ReplaceSales(businessID, sales); err != nil {
		return err
	}

	expenses, err := gateway.ListExpenses(ctx, businessID)
	if err != nil {
		return err
	}
	return r.store.ReplaceExpenses(businessID, expenses)
}
