package mirror

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

func u(n uint64) uint256.Int { return safemath.FromUint64(n) }

func feed(m *Mirror, records ...event.Record) {
	log := event.NewLog()
	log.Subscribe(m)
	for _, r := range records {
		log.Append(r)
	}
}

func TestMirror_TracksRolesAndStores(t *testing.T) {
	m := New()
	feed(m,
		event.NewAdministratorAdded("alice"),
		event.NewStoreOwnerAdded("bob"),
		event.NewStoreOwnerAdded("dave"),
		event.NewStoreCreated(0, "bob", "S"),
		event.NewStoreCreated(1, "dave", "D"),
		event.NewStoreCreated(2, "bob", "T"),
		event.NewProductAdded(0, 0, "P", "QmP", u(2), u(5)),
		event.NewProductAdded(0, 1, "Q", "QmQ", u(1), u(1)),
		event.NewProductPurchased(0, 0, u(2), u(4), "carol"),
		event.NewFundsWithdrawn(0, u(3)),
		event.NewProductPriceChanged(0, 1, u(9)),
		event.NewProductRemoved(0, 0),
		event.NewStoreRemoved(2),
		event.NewStoreOwnerRemoved("dave"),
		event.NewMarketClosed(),
	)

	require.NoError(t, m.Err())
	assert.Equal(t, int64(15), m.LastSeq())
	assert.False(t, m.Open())
	assert.Equal(t, []string{"alice"}, m.Administrators())
	assert.Equal(t, []string{"bob"}, m.StoreOwners())

	stores := m.Stores()
	require.Len(t, stores, 2)
	assert.Equal(t, u(1), stores[0].Balance)

	bobs := m.StoresOf("bob")
	require.Len(t, bobs, 1)
	assert.Equal(t, "S", bobs[0].Name)
	assert.Len(t, m.StoresOf("dave"), 1, "removing the role leaves the store")

	products := m.Products(0)
	require.Len(t, products, 1)
	assert.Equal(t, "Q", products[0].Name)
	assert.Equal(t, u(9), products[0].Price)
	assert.Empty(t, m.Products(2))
}

func TestMirror_RecordsInconsistency(t *testing.T) {
	m := New()
	feed(m,
		event.NewStoreCreated(0, "bob", "S"),
		event.NewFundsWithdrawn(0, u(1)),
		event.NewStoreNameChanged(0, "still applied"),
	)

	assert.ErrorIs(t, m.Err(), safemath.ErrUnderflow)
	assert.Equal(t, "still applied", m.Stores()[0].Name)
}

func TestMirror_RejectsSeqGap(t *testing.T) {
	m := New()
	m.Observe(event.Event{Seq: 2, Kind: event.MarketOpened})
	assert.Error(t, m.Err())
}

func TestMirror_ZeroPurchaseOfRemovedStore(t *testing.T) {
	m := New()
	feed(m,
		event.NewStoreCreated(0, "bob", "S"),
		event.NewStoreRemoved(0),
		event.NewProductPurchased(0, 0, u(0), u(0), "carol"),
	)
	assert.NoError(t, m.Err())
}
