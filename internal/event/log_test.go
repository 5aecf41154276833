package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/safemath"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(10)
	assert.Equal(t, int64(11), resumed.Next())
}

func TestLog_AppendAssignsSeqAndID(t *testing.T) {
	l := NewLog()
	a := l.Append(NewAdministratorAdded("alice"))
	b := l.Append(NewMarketClosed())

	assert.Equal(t, int64(1), a.Seq)
	assert.Equal(t, int64(2), b.Seq)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "alice", a.Principal())
	assert.Equal(t, int64(2), l.Len())
}

func TestLog_Events(t *testing.T) {
	l := NewLog()
	l.Append(NewMarketClosed())
	l.Append(NewMarketOpened())
	l.Append(NewMarketClosed())

	assert.Len(t, l.Events(0), 3)
	rest := l.Events(1)
	require.Len(t, rest, 2)
	assert.Equal(t, MarketOpened, rest[0].Kind)
	assert.Empty(t, l.Events(3))
	assert.Empty(t, l.Events(99))
	assert.Len(t, l.Events(-5), 3)
}

func TestLog_SubscribeReplaysHistoryThenFollows(t *testing.T) {
	l := NewLog()
	l.Append(NewStoreOwnerAdded("bob"))

	var seen []int64
	l.Subscribe(ObserverFunc(func(e Event) { seen = append(seen, e.Seq) }))
	l.Append(NewStoreCreated(0, "bob", "S"))

	assert.Equal(t, []int64{1, 2}, seen)
}

func TestRestore_RoundTrip(t *testing.T) {
	l := NewLog()
	l.Append(NewProductAdded(0, 0, "P", "QmHandle", safemath.FromUint64(2), safemath.FromUint64(1)))
	l.Append(NewFundsWithdrawn(0, safemath.FromUint64(1)))

	restored, err := Restore(l.Events(0))
	require.NoError(t, err)
	assert.Equal(t, l.Events(0), restored.Events(0))

	next := restored.Append(NewMarketClosed())
	assert.Equal(t, int64(3), next.Seq)
}

func TestRestore_RejectsGapsAndTampering(t *testing.T) {
	l := NewLog()
	l.Append(NewMarketClosed())
	l.Append(NewMarketOpened())
	events := l.Events(0)

	_, err := Restore(events[1:])
	assert.Error(t, err)

	tampered := l.Events(0)
	tampered[0].Kind = MarketOpened
	_, err = Restore(tampered)
	assert.Error(t, err)
}

func TestEvent_Accessors(t *testing.T) {
	e := NewLog().Append(NewProductPurchased(4, 7, safemath.FromUint64(3), safemath.FromUint64(6), "carol"))

	assert.Equal(t, uint64(4), e.StoreID())
	assert.Equal(t, uint64(7), e.ProductID())
	assert.Equal(t, "carol", e.Principal())

	qty, err := e.Quantity()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), qty.Uint64())

	amount, err := e.Amount()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), amount.Uint64())

	assert.Equal(t, `1 ProductPurchased {"amount":"6","buyer":"carol","product_id":7,"quantity":"3","store_id":4}`, e.String())
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("Bogus").Valid())
	assert.Len(t, Kinds, 17)
}
