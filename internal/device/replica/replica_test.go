package replica_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tradekeeper/trade_keeper_app/internal/apperrors"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/device/localstore"
	"github.com/tradekeeper/trade_keeper_app/internal/device/replica"
	"github.com/tradekeeper/trade_keeper_app/internal/dto"
)

// fakeGateway is an in-memory Gateway for replica tests. failBeforeSuccess
// makes the next N upsert calls fail, for outbox retry scenarios.
type fakeGateway struct {
	mu sync.Mutex

	businesses []domain.Business
	products   map[string][]domain.Product
	sales      map[string][]domain.Sale
	expenses   map[string][]domain.Expense

	created  []dto.CreateBusinessRequest
	cleared  []string
	deleted  []string
	upserted []string // ordered log of applied upsert batches

	syncRequests []dto.SyncRequest
	syncResult   *domain.SyncResult
	syncErr      error

	failBeforeSuccess int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: make(map[string][]domain.Product),
		sales:    make(map[string][]domain.Sale),
		expenses: make(map[string][]domain.Expense),
	}
}

func (g *fakeGateway) Sync(ctx context.Context, req dto.SyncRequest) (*domain.SyncResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.syncRequests = append(g.syncRequests, req)
	if g.syncErr != nil {
		return nil, g.syncErr
	}
	if g.syncResult != nil {
		return g.syncResult, nil
	}
	return &domain.SyncResult{}, nil
}

func (g *fakeGateway) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Business(nil), g.businesses...), nil
}

func (g *fakeGateway) CreateBusiness(ctx context.Context, req dto.CreateBusinessRequest) (*domain.Business, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	b := domain.Business{
		BusinessID:   req.BusinessID,
		Name:         req.Name,
		CurrencyCode: req.CurrencyCode,
		Plan:         req.Plan,
	}
	if b.BusinessID == "" {
		b.BusinessID = uuid.NewString()
	}
	g.businesses = append(g.businesses, b)
	return &b, nil
}

func (g *fakeGateway) ClearBusinessRecords(ctx context.Context, businessID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cleared = append(g.cleared, businessID)
	delete(g.products, businessID)
	delete(g.sales, businessID)
	delete(g.expenses, businessID)
	return nil
}

func (g *fakeGateway) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Product(nil), g.products[businessID]...), nil
}

func (g *fakeGateway) ListSales(ctx context.Context, businessID string) ([]domain.Sale, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Sale(nil), g.sales[businessID]...), nil
}

func (g *fakeGateway) ListExpenses(ctx context.Context, businessID string) ([]domain.Expense, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Expense(nil), g.expenses[businessID]...), nil
}

func (g *fakeGateway) failOrPass() error {
	if g.failBeforeSuccess > 0 {
		g.failBeforeSuccess--
		return errors.New("gateway unavailable")
	}
	return nil
}

func (g *fakeGateway) UpsertProducts(ctx context.Context, businessID string, products []domain.Product) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failOrPass(); err != nil {
		return 0, err
	}
	g.products[businessID] = append(g.products[businessID], products...)
	g.upserted = append(g.upserted, "products:"+businessID)
	return len(products), nil
}

func (g *fakeGateway) UpsertSales(ctx context.Context, businessID string, sales []domain.Sale) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failOrPass(); err != nil {
		return 0, err
	}
	g.sales[businessID] = append(g.sales[businessID], sales...)
	g.upserted = append(g.upserted, "sales:"+businessID)
	return len(sales), nil
}

func (g *fakeGateway) UpsertExpenses(ctx context.Context, businessID string, expenses []domain.Expense) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failOrPass(); err != nil {
		return 0, err
	}
	g.expenses[businessID] = append(g.expenses[businessID], expenses...)
	g.upserted = append(g.upserted, "expenses:"+businessID)
	return len(expenses), nil
}

func (g *fakeGateway) DeleteProduct(ctx context.Context, businessID, productID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failOrPass(); err != nil {
		return err
	}
	kept := g.products[businessID][:0]
	found := false
	for _, p := range g.products[businessID] {
		if p.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return apperrors.NewNotFoundError("product " + productID + " not found")
	}
	g.products[businessID] = kept
	g.deleted = append(g.deleted, "product:"+productID)
	return nil
}

func (g *fakeGateway) upsertLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.upserted...)
}

func (g *fakeGateway) deleteLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}

func (g *fakeGateway) cloudProducts(businessID string) []domain.Product {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Product(nil), g.products[businessID]...)
}

var _ replica.Gateway = (*fakeGateway)(nil)

func newTestReplica(t *testing.T, userID string) (*replica.Replica, *localstore.Store) {
	t.Helper()
	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return replica.New(store, nil, userID, slog.Default()), store
}

// newMirroredReplica wires a replica to a running outbox over a fakeGateway.
func newMirroredReplica(t *testing.T, userID string) (*replica.Replica, *localstore.Store, *fakeGateway, *replica.Outbox) {
	t.Helper()
	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	gateway := newFakeGateway()
	outbox := replica.NewOutbox(gateway, slog.Default(), time.Millisecond, 10*time.Millisecond)
	runOutbox(t, outbox)
	return replica.New(store, outbox, userID, slog.Default()), store, gateway, outbox
}

func memberBusiness(businessID, userID string) domain.Business {
	return domain.Business{
		BusinessID: businessID,
		Name:       "Kemi Stores",
		OwnerID:    userID,
	}
}

func TestApplyEvent_ProductAddedIsIdempotent(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	businessID := uuid.NewString()

	p := domain.Product{ProductID: uuid.NewString(), BusinessID: businessID, Name: "Rice 50kg"}
	event := domain.ChangeEvent{Type: domain.EventProductAdded, BusinessID: businessID, Product: &p}

	require.NoError(t, r.ApplyEvent(event))
	require.NoError(t, r.ApplyEvent(event))

	products, err := store.ListProducts(businessID)
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestApplyEvent_AddedDoesNotOverwriteNewerState(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	businessID := uuid.NewString()
	productID := uuid.NewString()

	current := domain.Product{ProductID: productID, BusinessID: businessID, Name: "Rice 50kg", Quantity: 7}
	require.NoError(t, store.PutProduct(current))

	stale := domain.Product{ProductID: productID, BusinessID: businessID, Name: "Rice 50kg", Quantity: 10}
	require.NoError(t, r.ApplyEvent(domain.ChangeEvent{
		Type: domain.EventProductAdded, BusinessID: businessID, Product: &stale,
	}))

	products, err := store.ListProducts(businessID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, int64(7), products[0].Quantity)
}

func TestApplyEvent_UpdatedForUnknownProductIsNoop(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	businessID := uuid.NewString()

	p := domain.Product{ProductID: uuid.NewString(), BusinessID: businessID, Name: "Rice 50kg"}
	require.NoError(t, r.ApplyEvent(domain.ChangeEvent{
		Type: domain.EventProductUpdated, BusinessID: businessID, Product: &p,
	}))

	products, err := store.ListProducts(businessID)
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestApplyEvent_ProductDeleted(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	businessID := uuid.NewString()
	p := domain.Product{ProductID: uuid.NewString(), BusinessID: businessID, Name: "Rice 50kg"}
	require.NoError(t, store.PutProduct(p))

	event := domain.ChangeEvent{Type: domain.EventProductDeleted, BusinessID: businessID, EntityID: p.ProductID}
	require.NoError(t, r.ApplyEvent(event))
	require.NoError(t, r.ApplyEvent(event))

	ok, err := store.HasProduct(p.ProductID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestApplyEvent_BusinessUpdatedStoresNewState(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))

	b.Name = "Kemi Superstores"
	require.NoError(t, r.ApplyEvent(domain.ChangeEvent{
		Type: domain.EventBusinessUpdated, BusinessID: b.BusinessID, Business: &b,
	}))

	got, claimed, err := store.GetBusiness(b.BusinessID)
	require.NoError(t, err)
	require.True(t, claimed)
	require.Equal(t, "Kemi Superstores", got.Name)
}

func TestApplyEvent_RevocationPurgesAndNotifiesOnce(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	b := memberBusiness(uuid.NewString(), uuid.NewString())
	require.NoError(t, store.PutBusiness(b, true))

	// New business state no longer lists this user.
	event := domain.ChangeEvent{Type: domain.EventBusinessUpdated, BusinessID: b.BusinessID, Business: &b}
	require.NoError(t, r.ApplyEvent(event))

	got, _, err := store.GetBusiness(b.BusinessID)
	require.NoError(t, err)
	require.Nil(t, got)

	select {
	case n := <-r.Notifications():
		require.Equal(t, replica.NotificationRevoked, n.Kind)
		require.Equal(t, b.BusinessID, n.BusinessID)
	default:
		t.Fatal("expected a revocation notification")
	}

	// A replayed revocation event is silent.
	require.NoError(t, r.ApplyEvent(event))
	select {
	case <-r.Notifications():
		t.Fatal("replayed revocation must not notify again")
	default:
	}
}

func TestApplyEvent_BusinessDeletedPurges(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))
	p := domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Rice 50kg"}
	require.NoError(t, store.PutProduct(p))

	require.NoError(t, r.ApplyEvent(domain.ChangeEvent{
		Type: domain.EventBusinessDeleted, BusinessID: b.BusinessID, EntityID: b.BusinessID,
	}))

	got, _, err := store.GetBusiness(b.BusinessID)
	require.NoError(t, err)
	require.Nil(t, got)
	products, err := store.ListProducts(b.BusinessID)
	require.NoError(t, err)
	require.Empty(t, products)

	select {
	case n := <-r.Notifications():
		require.Equal(t, replica.NotificationBusinessDeleted, n.Kind)
	default:
		t.Fatal("expected a deletion notification")
	}
}

func TestResume_PurgesInvisibleClaimedBusinesses(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()

	visible := memberBusiness(uuid.NewString(), userID)
	revoked := memberBusiness(uuid.NewString(), uuid.NewString())
	unclaimed := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(visible, true))
	require.NoError(t, store.PutBusiness(revoked, true))
	require.NoError(t, store.PutBusiness(unclaimed, false))
	gateway.businesses = []domain.Business{visible}

	require.NoError(t, r.Resume(context.Background(), gateway))

	got, _, err := store.GetBusiness(revoked.BusinessID)
	require.NoError(t, err)
	require.Nil(t, got)

	// Unclaimed local businesses await consolidation, not resume.
	got, _, err = store.GetBusiness(unclaimed.BusinessID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, _, err = store.GetBusiness(visible.BusinessID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestResume_RefreshesActiveRecordsKeepingLocalOnly(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()

	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))
	require.NoError(t, store.SetActiveBusiness(b.BusinessID))
	gateway.businesses = []domain.Business{b}

	sharedID := uuid.NewString()
	localOnly := domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Local Only"}
	localStale := domain.Product{ProductID: sharedID, BusinessID: b.BusinessID, Name: "Stale Name"}
	require.NoError(t, store.PutProduct(localOnly))
	require.NoError(t, store.PutProduct(localStale))
	gateway.products[b.BusinessID] = []domain.Product{
		{ProductID: sharedID, BusinessID: b.BusinessID, Name: "Cloud Name"},
	}

	require.NoError(t, r.Resume(context.Background(), gateway))

	products, err := store.ListProducts(b.BusinessID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}
	require.Equal(t, "Cloud Name", byID[sharedID].Name)
	require.Equal(t, "Local Only", byID[localOnly.ProductID].Name)
}
