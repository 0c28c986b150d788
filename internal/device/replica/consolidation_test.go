package replica_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
	"github.com/tradekeeper/trade_keeper_app/internal/device/localstore"
	"github.com/tradekeeper/trade_keeper_app/internal/device/replica"
)

func seedUnclaimedBusiness(t *testing.T, store *localstore.Store, userID string) domain.Business {
	t.Helper()
	b := domain.Business{
		BusinessID:   uuid.NewString(),
		Name:         "Kemi Stores",
		CurrencyCode: "NGN",
		Plan:         domain.PlanFree,
	}
	require.NoError(t, store.PutBusiness(b, false))
	require.NoError(t, store.PutProduct(domain.Product{
		ProductID: uuid.NewString(), BusinessID: b.BusinessID, Name: "Rice 50kg",
	}))
	require.NoError(t, store.PutSale(domain.Sale{
		SaleID: uuid.NewString(), BusinessID: b.BusinessID, Quantity: 2,
	}))
	return b
}

func TestConsolidate_MergePoursRecordsIntoTarget(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	local := seedUnclaimedBusiness(t, store, userID)
	targetID := uuid.NewString()

	err := r.Consolidate(context.Background(), gateway, local.BusinessID, targetID, replica.ChoiceMerge)
	require.NoError(t, err)

	// Records arrive retagged to the target business.
	require.Len(t, gateway.products[targetID], 1)
	require.Equal(t, targetID, gateway.products[targetID][0].BusinessID)
	require.Len(t, gateway.sales[targetID], 1)

	// Local copy is consumed and the device now points at the target.
	got, _, err := store.GetBusiness(local.BusinessID)
	require.NoError(t, err)
	require.Nil(t, got)
	active, err := store.ActiveBusinessID()
	require.NoError(t, err)
	require.Equal(t, targetID, active)
}

func TestConsolidate_CreateNewKeepsDeviceAssignedID(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	local := seedUnclaimedBusiness(t, store, userID)

	err := r.Consolidate(context.Background(), gateway, local.BusinessID, "", replica.ChoiceCreateNew)
	require.NoError(t, err)

	require.Len(t, gateway.created, 1)
	require.Equal(t, local.BusinessID, gateway.created[0].BusinessID)
	require.Len(t, gateway.products[local.BusinessID], 1)

	// The business stays on the device, now claimed.
	got, claimed, err := store.GetBusiness(local.BusinessID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, claimed)
}

func TestConsolidate_UseCloudDiscardsLocal(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	local := seedUnclaimedBusiness(t, store, userID)

	err := r.Consolidate(context.Background(), gateway, local.BusinessID, "", replica.ChoiceUseCloud)
	require.NoError(t, err)

	require.Empty(t, gateway.upsertLog())
	got, _, err := store.GetBusiness(local.BusinessID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestConsolidate_ReplaceCloudClearsTargetFirst(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	local := seedUnclaimedBusiness(t, store, userID)
	targetID := uuid.NewString()
	gateway.products[targetID] = []domain.Product{
		{ProductID: uuid.NewString(), BusinessID: targetID, Name: "Doomed"},
	}

	err := r.Consolidate(context.Background(), gateway, local.BusinessID, targetID, replica.ChoiceReplaceCloud)
	require.NoError(t, err)

	require.Equal(t, []string{targetID}, gateway.cleared)
	require.Len(t, gateway.products[targetID], 1)
	require.Equal(t, "Rice 50kg", gateway.products[targetID][0].Name)
}

func TestConsolidate_ClaimedBusinessRejected(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	b := domain.Business{BusinessID: uuid.NewString(), Name: "Kemi Stores"}
	require.NoError(t, store.PutBusiness(b, true))

	err := r.Consolidate(context.Background(), gateway, b.BusinessID, "", replica.ChoiceMerge)
	require.Error(t, err)
}

func TestConsolidate_UnknownChoiceRejected(t *testing.T) {
	userID := uuid.NewString()
	r, store := newTestReplica(t, userID)
	gateway := newFakeGateway()
	local := seedUnclaimedBusiness(t, store, userID)

	err := r.Consolidate(context.Background(), gateway, local.BusinessID, "", replica.Choice("split_the_difference"))
	require.Error(t, err)
}
