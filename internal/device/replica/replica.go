// Package replica keeps a device's local store converged with the cloud. The
// reducer applies realtime change events, the reconciler repairs gaps after a
// disconnect, the consolidator resolves pre-sign-in local businesses, and the
// outbox mirrors local writes back to the gateway.
package replica

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/device/localstore"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// Gateway is the slice of the cloud API the replica engine consumes.
// *remote.Client satisfies it.
type Gateway interface {
	Sync(ctx context.Context, req dto.SyncRequest) (*domain.SyncResult, error)
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest) (*domain.Business, error)
	ClearBusinessRecords(ctx context.Context, businessID string) error
	ListProducts(ctx context.Context, businessID string) ([]domain.Product, error)
	ListSales(ctx context.Context, businessID string) ([]domain.Sale, error)
	ListExpenses(ctx context.Context, businessID string) ([]domain.Expense, error)
	DeleteProduct(ctx context.Context, businessID, productID string) error
	UpsertProducts(ctx context.Context, businessID string, products []domain.Product) (int, error)
	UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) (int, error)
	UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) (int, error)
}

// NotificationKind classifies replica notifications surfaced to the UI.
type NotificationKind string

const (
	// NotificationRevoked fires when the user lost access to a business and
	// its local copy was purged.
	NotificationRevoked NotificationKind = "access_revoked"
	// NotificationBusinessDeleted fires when the business itself was deleted
	// in the cloud.
	NotificationBusinessDeleted NotificationKind = "business_deleted"
)

type Notification struct {
	Kind       NotificationKind
	BusinessID string
}

// Replica is the single owner of local replica state. All mutations funnel
// through its mutex, so event application and reconciliation never interleave.
type Replica struct {
	mu     sync.Mutex
	store  *localstore.Store
	outbox *Outbox
	userID string
	logger *slog.Logger

	notifications chan Notification
}

// New builds a replica over the device store. outbox carries local writes to
// the cloud in the background; a nil outbox keeps every write local, which
// suits a signed-out device.
func New(store *localstore.Store, outbox *Outbox, userID string, logger *slog.Logger) *Replica {
	return &Replica{
		store:         store,
		outbox:        outbox,
		userID:        userID,
		logger:        logger,
		notifications: make(chan Notification, 16),
	}
}

// Notifications surfaces revocation and deletion signals for the UI.
func (r *Replica) Notifications() <-chan Notification {
	return r.notifications
}

// ApplyEvent folds one realtime change event into the local store. Events
// are idempotent: added inserts only when absent, updated replaces only when
// present, deleted removes. Replaying an event stream converges to the same
// state.
func (r *Replica) ApplyEvent(event domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case domain.EventProductAdded:
		if event.Product == nil {
			return nil
		}
		exists, err := r.store.HasProduct(event.Product.ProductID)
		if err != nil || exists {
			return err
		}
		return r.store.PutProduct(*event.Product)

	case domain.EventProductUpdated:
		if event.Product == nil {
			return nil
		}
		exists, err := r.store.HasProduct(event.Product.ProductID)
		if err != nil || !exists {
			return err
		}
		return r.store.PutProduct(*event.Product)

	case domain.EventProductDeleted:
		return r.store.DeleteProduct(event.EntityID)

	case domain.EventSaleAdded:
		if event.Sale == nil {
			return nil
		}
		exists, err := r.store.HasSale(event.Sale.SaleID)
		if err != nil || exists {
			return err
		}
		return r.store.PutSale(*event.Sale)

	case domain.EventExpenseAdded:
		if event.Expense == nil {
			return nil
		}
		exists, err := r.store.HasExpense(event.Expense.ExpenseID)
		if err != nil || exists {
			return err
		}
		return r.store.PutExpense(*event.Expense)

	case domain.EventBusinessUpdated:
		return r.applyBusinessUpdated(event)

	case domain.EventBusinessDeleted:
		return r.purgeLocked(event.BusinessID, NotificationBusinessDeleted)

	default:
		r.logger.Warn("Ignoring unknown change event", slog.String("event_type", string(event.Type)))
		return nil
	}
}

// applyBusinessUpdated stores the new business state, or purges it when this
// user was removed from the collaborator list. The purge path is how
// server-side revocation reaches a connected device.
func (r *Replica) applyBusinessUpdated(event domain.ChangeEvent) error {
	if event.Business == nil {
		return nil
	}
	if !event.Business.IsMember(r.userID) {
		return r.purgeLocked(event.Business.BusinessID, NotificationRevoked)
	}
	return r.store.PutBusiness(*event.Business, true)
}

// purgeLocked removes a business locally and notifies once. A business
// already absent produces no notification, which keeps a replayed revocation
// event silent.
func (r *Replica) purgeLocked(businessID string, kind NotificationKind) error {
	existing, _, err := r.store.GetBusiness(businessID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := r.store.PurgeBusiness(businessID); err != nil {
		return err
	}
	select {
	case r.notifications <- Notification{Kind: kind, BusinessID: businessID}:
	default:
		r.logger.Warn("Notification buffer full, dropping",
			slog.String("kind", string(kind)), slog.String("business_id", businessID))
	}
	return nil
}
