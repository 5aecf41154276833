package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/payload"
)

func TestReplay_RebuildsState(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.AddStoreOwner(alice, carol))
	_, err := m.CreateStore(carol, "C")
	require.NoError(t, err)
	_, err = m.AddProduct(carol, 1, "X", "QmX", u(3), u(10))
	require.NoError(t, err)
	require.NoError(t, m.PurchaseProduct(alice, u(6), 1, 0, u(2)))
	require.NoError(t, m.WithdrawFunds(carol, 1, u(5)))
	require.NoError(t, m.ChangeProductDescription(bob, 0, 0, "QmNew"))
	require.NoError(t, m.RemoveProduct(bob, 0, 0))
	require.NoError(t, m.PurchaseProduct(alice, u(0), 0, 0, u(0)))
	require.NoError(t, m.RemoveStore(bob, 0))
	require.NoError(t, m.RemoveStoreOwner(alice, bob))
	require.NoError(t, m.CloseMarket(owner))

	r, err := Replay(owner, m.Log().Events(0), nil)
	require.NoError(t, err)

	assert.Equal(t, m.Administrators(), r.Administrators())
	assert.Equal(t, m.StoreOwners(), r.StoreOwners())
	assert.Equal(t, m.Closed(), r.Closed())
	assert.Equal(t, m.ActiveStores(), r.ActiveStores())
	assert.Equal(t, m.ActiveProducts(1), r.ActiveProducts(1))
	assert.Equal(t, m.NextStoreID(), r.NextStoreID())
	assert.Equal(t, m.NextProductID(1), r.NextProductID(1))
	assert.Equal(t, u(1), r.Store(1).Balance)
	assert.Equal(t, u(8), r.Product(1, 0).Quantity)
	assert.Equal(t, m.Log().Len(), r.Log().Len())

	// The replayed market keeps appending where the original stopped.
	require.NoError(t, r.OpenMarket(owner))
	assert.Equal(t, m.Log().Len()+1, r.Log().Events(m.Log().Len())[0].Seq)
}

func TestReplay_RejectsInconsistentStreams(t *testing.T) {
	build := func(records ...event.Record) []event.Event {
		log := event.NewLog()
		for _, r := range records {
			log.Append(r)
		}
		return log.Events(0)
	}

	tests := []struct {
		name   string
		events []event.Event
	}{
		{
			"store id skips allocator",
			build(event.NewStoreCreated(3, "bob", "S")),
		},
		{
			"rename of unknown store",
			build(event.NewStoreNameChanged(0, "S")),
		},
		{
			"withdraw more than balance",
			build(
				event.NewStoreCreated(0, "bob", "S"),
				event.NewFundsWithdrawn(0, u(1)),
			),
		},
		{
			"purchase beyond stock",
			build(
				event.NewStoreCreated(0, "bob", "S"),
				event.NewProductAdded(0, 0, "P", "", u(1), u(1)),
				event.NewProductPurchased(0, 0, u(2), u(2), "carol"),
			),
		},
		{
			"double product removal",
			build(
				event.NewStoreCreated(0, "bob", "S"),
				event.NewProductAdded(0, 0, "P", "", u(1), u(1)),
				event.NewProductRemoved(0, 0),
				event.NewProductRemoved(0, 0),
			),
		},
		{
			"malformed amount",
			build(
				event.NewStoreCreated(0, "bob", "S"),
				event.Record{Kind: event.FundsWithdrawn, Args: payload.Object{
					event.ArgStoreID: payload.Int(0),
					event.ArgAmount:  payload.String("-1"),
				}},
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(owner, tt.events, nil)
			assert.Error(t, err)
		})
	}
}
