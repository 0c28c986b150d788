package replica

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// Choice is the user's decision for one local business discovered at
// sign-in when the account already has cloud businesses.
type Choice string

const (
	// ChoiceMerge pours the local records into an existing cloud business.
	ChoiceMerge Choice = "merge"
	// ChoiceCreateNew claims the local business as a new cloud business,
	// keeping its device-assigned id.
	ChoiceCreateNew Choice = "create_new"
	// ChoiceUseCloud discards the local business entirely.
	ChoiceUseCloud Choice = "use_cloud"
	// ChoiceReplaceCloud wipes the target cloud business's records and
	// replaces them with the local ones.
	ChoiceReplaceCloud Choice = "replace_cloud"
)

// Consolidate resolves one unclaimed local business against the signed-in
// account. Every branch replays records through the idempotent bulk upsert
// endpoints, so an interrupted consolidation can be retried with the same
// arguments and converges without duplicating records.
//
// targetBusinessID names the existing cloud business for merge and
// replace_cloud; the other choices ignore it.
func (r *Replica) Consolidate(ctx context.Context, gateway Gateway, localBusinessID, targetBusinessID string, choice Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, claimed, err := r.store.GetBusiness(localBusinessID)
	if err != nil {
		return err
	}
	if local == nil {
		return fmt.Errorf("local business %s not found", localBusinessID)
	}
	if claimed {
		return fmt.Errorf("business %s is already claimed, nothing to consolidate", localBusinessID)
	}

	switch choice {
	case ChoiceMerge:
		if err := r.pushRecords(ctx, gateway, localBusinessID, targetBusinessID); err != nil {
			return err
		}
		return r.finishInto(localBusinessID, targetBusinessID)

	case ChoiceCreateNew:
		created, err := gateway.CreateBusiness(ctx, dto.CreateBusinessRequest{
			BusinessID:   local.BusinessID,
			Name:         local.Name,
			CurrencyCode: local.CurrencyCode,
			Plan:         local.Plan,
			TaxSettings: dto.TaxSettingsDTO{
				Registered: local.TaxSettings.Registered,
				TaxID:      local.TaxSettings.TaxID,
				Rate:       local.TaxSettings.Rate,
			},
		})
		if err != nil {
			return err
		}
		if err := r.pushRecords(ctx, gateway, localBusinessID, created.BusinessID); err != nil {
			return err
		}
		if err := r.store.PutBusiness(*created, true); err != nil {
			return err
		}
		r.logger.Info("Consolidated local business as new cloud business",
			slog.String("business_id", created.BusinessID))
		return nil

	case ChoiceUseCloud:
		// Local copy loses wholesale; no records leave the device.
		return r.store.PurgeBusiness(localBusinessID)

	case ChoiceReplaceCloud:
		// Clearing first makes the cloud business exactly the local dataset,
		// not a union of both.
		if err := gateway.ClearBusinessRecords(ctx, targetBusinessID); err != nil {
			return err
		}
		if err := r.pushRecords(ctx, gateway, localBusinessID, targetBusinessID); err != nil {
			return err
		}
		return r.finishInto(localBusinessID, targetBusinessID)

	default:
		return fmt.Errorf("unknown consolidation choice %q", choice)
	}
}

// pushRecords mirrors every local record of the source business into the
// target cloud business by id.
func (r *Replica) pushRecords(ctx context.Context, gateway Gateway, localBusinessID, targetBusinessID string) error {
	products, err := r.store.ListProducts(localBusinessID)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		retag := make([]domain.Product, len(products))
		copy(retag, products)
		for i := range retag {
			retag[i].BusinessID = targetBusinessID
		}
		if _, err := gateway.UpsertProducts(ctx, targetBusinessID, retag); err != nil {
			return err
		}
	}

	sales, err := r.store.ListSales(localBusinessID)
	if err != nil {
		return err
	}
	if len(sales) > 0 {
		retag := make([]domain.Sale, len(sales))
		copy(retag, sales)
		for i := range retag {
			retag[i].BusinessID = targetBusinessID
		}
		if _, err := gateway.UpsertSales(ctx, targetBusinessID, retag); err != nil {
			return err
		}
	}

	expenses, err := r.store.ListExpenses(localBusinessID)
	if err != nil {
		return err
	}
	if len(expenses) > 0 {
		retag := make([]domain.Expense, len(expenses))
		copy(retag, expenses)
		for i := range retag {
			retag[i].BusinessID = targetBusinessID
		}
		if _, err := gateway.UpsertExpenses(ctx, targetBusinessID, retag); err != nil {
			return err
		}
	}
	return nil
}

// finishInto drops the consumed local business and points the device at the
// surviving cloud business.
func (r *Replica) finishInto(localBusinessID, targetBusinessID string) error {
	if err := r.store.PurgeBusiness(localBusinessID); err != nil {
		return err
	}
	return r.store.SetActiveBusiness(targetBusinessID)
}
