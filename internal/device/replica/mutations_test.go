package replica_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

func TestSaveProduct_ClaimedBusinessMirrorsToCloud(t *testing.T) {
	userID := uuid.NewString()
	r, store, gateway, outbox := newMirroredReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))

	p := domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Rice 50kg"}
	require.NoError(t, r.SaveProduct(p))

	// The local write is visible before the mirror lands.
	ok, err := store.HasProduct(p.ProductID)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool { return outbox.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cloud := gateway.cloudProducts(b.BusinessID)
	require.Len(t, cloud, 1)
	require.Equal(t, p.ProductID, cloud[0].ProductID)
}

func TestSaveProduct_UnclaimedBusinessStaysLocal(t *testing.T) {
	userID := uuid.NewString()
	r, store, gateway, outbox := newMirroredReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, false))

	p := domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Rice 50kg"}
	require.NoError(t, r.SaveProduct(p))

	ok, err := store.HasProduct(p.ProductID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, outbox.Len())
	require.Empty(t, gateway.upsertLog())
}

func TestLocalWritesMirrorInOrder(t *testing.T) {
	userID := uuid.NewString()
	r, store, gateway, outbox := newMirroredReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))

	require.NoError(t, r.SaveProduct(domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID}))
	require.NoError(t, r.SaveSale(domain.Sale{SaleID: uuid.NewString(), BusinessID: b.BusinessID}))
	require.NoError(t, r.SaveExpense(domain.Expense{ExpenseID: uuid.NewString(), BusinessID: b.BusinessID}))

	require.Eventually(t, func() bool { return outbox.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []string{
		"products:" + b.BusinessID,
		"sales:" + b.BusinessID,
		"expenses:" + b.BusinessID,
	}, gateway.upsertLog())
}

func TestDeleteProduct_MirrorsRemoval(t *testing.T) {
	userID := uuid.NewString()
	r, store, gateway, outbox := newMirroredReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))

	p := domain.Product{ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Rice 50kg"}
	require.NoError(t, store.PutProduct(p))
	gateway.products[b.BusinessID] = []domain.Product{p}

	require.NoError(t, r.DeleteProduct(b.BusinessID, p.ProductID))

	ok, err := store.HasProduct(p.ProductID)
	require.NoError(t, err)
	require.False(t, ok)

	require.Eventually(t, func() bool { return outbox.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.Empty(t, gateway.cloudProducts(b.BusinessID))
	require.Equal(t, []string{"product:" + p.ProductID}, gateway.deleteLog())
}

func TestDeleteProduct_UnknownInCloudStillDrains(t *testing.T) {
	userID := uuid.NewString()
	r, store, _, outbox := newMirroredReplica(t, userID)
	b := memberBusiness(uuid.NewString(), userID)
	require.NoError(t, store.PutBusiness(b, true))

	// The cloud never saw this product; the mirror must complete instead of
	// retrying a delete that can never succeed.
	require.NoError(t, r.DeleteProduct(b.BusinessID, uuid.NewString()))

	require.Eventually(t, func() bool { return outbox.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}
