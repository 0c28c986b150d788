package replica

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/device/localstore"
)

// Resume repairs the local replica after a connectivity gap. Events that
// fired while the device was offline are gone, so the device refetches:
//
//   - the business list, purging claimed businesses the user can no longer
//     see (revocation or deletion that happened while offline)
//   - the active business's records, where the cloud copy wins for ids both
//     sides know and records only the device has are kept (they are still
//     queued in the outbox)
//
// Unclaimed local businesses are untouched; consolidation owns those.
func (r *Replica) Resume(ctx context.Context, gateway Gateway) error {
	cloud, err := gateway.ListBusinesses(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cloudByID := make(map[string]*domain.Business, len(cloud))
	for i := range cloud {
		cloudByID[cloud[i].BusinessID] = &cloud[i]
	}

	local, err := r.store.ListBusinesses(false)
	if err != nil {
		return err
	}
	for i := range local {
		_, claimed, err := r.store.GetBusiness(local[i].BusinessID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		if _, visible := cloudByID[local[i].BusinessID]; !visible {
			r.logger.Info("Business no longer visible after resume, purging",
				slog.String("business_id", local[i].BusinessID))
			if err := r.purgeLocked(local[i].BusinessID, NotificationRevoked); err != nil {
				return err
			}
		}
	}

	// Cloud business state wins wholesale.
	for i := range cloud {
		if err := r.store.PutBusiness(cloud[i], true); err != nil {
			return err
		}
	}

	activeID, err := r.store.ActiveBusinessID()
	if errors.Is(err, localstore.ErrNoActiveBusiness) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, visible := cloudByID[activeID]; !visible {
		return nil
	}
	return r.refreshActiveRecords(ctx, gateway, activeID)
}

// refreshActiveRecords overlays the cloud copy of the active business's
// records on the local store. Ids present in both take the cloud version;
// local-only ids survive.
func (r *Replica) refreshActiveRecords(ctx context.Context, gateway Gateway, businessID string) error {
	products, err := gateway.ListProducts(ctx, businessID)
	if err != nil {
		return err
	}
	for i := range products {
		if err := r.store.PutProduct(products[i]); err != nil {
			return err
		}
	}

	sales, err := gateway.ListSales(ctx, businessID)
	if err != nil {
		return err
	}
	for i := range sales {
		if err := r.store.PutSale(sales[i]); err != nil {
			return err
		}
	}

	expenses, err := gateway.ListExpenses(ctx, businessID)
	if err != nil {
		return err
	}
	for i := range expenses {
		if err := r.store.PutExpense(expenses[i]); err != nil {
			return err
		}
	}

	r.logger.Debug("Resume refreshed active business records",
		slog.String("business_id", businessID),
		slog.Int("products", len(products)),
		slog.Int("sales", len(sales)),
		slog.Int("expenses", len(expenses)))
	return nil
}
