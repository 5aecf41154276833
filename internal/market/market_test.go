package market

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

const (
	owner Principal = "owner"
	alice Principal = "alice"
	bob   Principal = "bob"
	carol Principal = "carol"
)

func u(n uint64) uint256.Int { return safemath.FromUint64(n) }

// recordingPayout records transfers and optionally fails or runs a hook.
type recordingPayout struct {
	paid   map[Principal]uint256.Int
	fail   error
	during func()
}

func newRecordingPayout() *recordingPayout {
	return &recordingPayout{paid: make(map[Principal]uint256.Int)}
}

func (p *recordingPayout) Transfer(to Principal, amount uint256.Int) error {
	if p.during != nil {
		p.during()
	}
	if p.fail != nil {
		return p.fail
	}
	cur := p.paid[to]
	sum, err := safemath.Add(cur, amount)
	if err != nil {
		return err
	}
	p.paid[to] = sum
	return nil
}

// seeded returns a market where alice administers, bob owns store 0 with
// product 0 (price 2, quantity 5).
func seeded(t *testing.T) (*Market, *recordingPayout) {
	t.Helper()
	payout := newRecordingPayout()
	m := New(owner, payout)
	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.AddStoreOwner(alice, bob))
	sid, err := m.CreateStore(bob, "S")
	require.NoError(t, err)
	require.Equal(t, uint64(0), sid)
	pid, err := m.AddProduct(bob, sid, "P", "QmHandle", u(2), u(5))
	require.NoError(t, err)
	require.Equal(t, uint64(0), pid)
	return m, payout
}

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestNew_InitialState(t *testing.T) {
	m := New(owner, nil)
	assert.Equal(t, owner, m.Owner())
	assert.True(t, m.IsOpen())
	assert.False(t, m.Closed())
	assert.True(t, m.IsOwner(owner))
	assert.False(t, m.IsOwner(NoPrincipal))
	assert.Empty(t, m.Administrators())
	assert.Equal(t, int64(0), m.Log().Len())
}

func TestAddAdministrator_OwnerOnly(t *testing.T) {
	for _, p := range []Principal{alice, bob, NoPrincipal} {
		m := New(owner, nil)
		err := m.AddAdministrator(p, p)
		assert.ErrorIs(t, err, ErrUnauthorized, "caller %q", p)
		assert.False(t, m.IsAdministrator(p))
		assert.Equal(t, int64(0), m.Log().Len())
	}

	m := New(owner, nil)
	require.NoError(t, m.AddAdministrator(owner, alice))
	assert.True(t, m.IsAdministrator(alice))
	events := m.Log().Events(0)
	require.Len(t, events, 1)
	assert.Equal(t, event.AdministratorAdded, events[0].Kind)
	assert.Equal(t, "alice", events[0].Principal())
}

func TestRoleChanges_NoOpStillEmits(t *testing.T) {
	m := New(owner, nil)
	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.RemoveAdministrator(owner, bob))

	assert.Equal(t, []Principal{alice}, m.Administrators())
	assert.Equal(t, []event.Kind{
		event.AdministratorAdded,
		event.AdministratorAdded,
		event.AdministratorRemoved,
	}, kinds(m.Log().Events(0)))
}

func TestAddStoreOwner_AdministratorOnly(t *testing.T) {
	m := New(owner, nil)
	err := m.AddStoreOwner(owner, bob)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.AddStoreOwner(alice, bob))
	assert.True(t, m.IsStoreOwner(bob))
	assert.Equal(t, []Principal{bob}, m.StoreOwners())

	require.NoError(t, m.RemoveAdministrator(owner, alice))
	err = m.RemoveStoreOwner(alice, bob)
	assert.ErrorIs(t, err, ErrUnauthorized, "revoked administrator keeps no rights")
	assert.True(t, m.IsStoreOwner(bob))
}

func TestOpenClose_OwnerOnlyAndUngated(t *testing.T) {
	m := New(owner, nil)
	assert.ErrorIs(t, m.CloseMarket(alice), ErrUnauthorized)

	require.NoError(t, m.CloseMarket(owner))
	require.NoError(t, m.CloseMarket(owner))
	assert.True(t, m.Closed())

	require.NoError(t, m.AddAdministrator(owner, alice), "role ops are not gated")
	require.NoError(t, m.OpenMarket(owner))
	assert.True(t, m.IsOpen())
}

func TestClosedMarket_GatesTradingOps(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(2), 0, 0, u(1)))
	require.NoError(t, m.CloseMarket(owner))
	before := m.Log().Len()

	_, err := m.CreateStore(bob, "other")
	assert.ErrorIs(t, err, ErrMarketClosed)
	_, err = m.AddProduct(bob, 0, "Q", "", u(1), u(1))
	assert.ErrorIs(t, err, ErrMarketClosed)
	assert.ErrorIs(t, m.PurchaseProduct(carol, u(2), 0, 0, u(1)), ErrMarketClosed)
	assert.ErrorIs(t, m.WithdrawFunds(bob, 0, u(1)), ErrMarketClosed)
	assert.ErrorIs(t, m.ChangeStoreName(bob, 0, "x"), ErrMarketClosed)
	assert.ErrorIs(t, m.ChangeProductPrice(bob, 0, 0, u(9)), ErrMarketClosed)
	assert.ErrorIs(t, m.RemoveStore(bob, 0), ErrMarketClosed)
	assert.Equal(t, before, m.Log().Len())

	// Reads work while closed.
	assert.Equal(t, "S", m.Store(0).Name)
	assert.Equal(t, "P", m.Product(0, 0).Name)
	assert.True(t, m.Closed())

	require.NoError(t, m.OpenMarket(owner))
	require.NoError(t, m.PurchaseProduct(carol, u(2), 0, 0, u(1)))
	require.NoError(t, m.WithdrawFunds(bob, 0, u(1)))
}

func TestCreateStore_RequiresStoreOwner(t *testing.T) {
	m := New(owner, nil)
	_, err := m.CreateStore(owner, "S")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestStoreOps_RequireStoreOwnership(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.AddStoreOwner(alice, carol))

	assert.ErrorIs(t, m.ChangeStoreName(carol, 0, "mine"), ErrUnauthorized)
	assert.ErrorIs(t, m.RemoveStore(carol, 0), ErrUnauthorized)
	_, err := m.AddProduct(carol, 0, "Q", "", u(1), u(1))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, m.ChangeProductName(carol, 0, 0, "x"), ErrUnauthorized)
	assert.ErrorIs(t, m.WithdrawFunds(carol, 0, u(0)), ErrUnauthorized)

	// Unknown store IDs have no owner.
	assert.ErrorIs(t, m.ChangeStoreName(bob, 42, "x"), ErrUnauthorized)

	require.NoError(t, m.ChangeStoreName(bob, 0, "renamed"))
	assert.Equal(t, "renamed", m.Store(0).Name)
}

func TestRemoveStoreOwner_StripsManagementRights(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.RemoveStoreOwner(alice, bob))

	err := m.ChangeStoreName(bob, 0, "still mine?")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, bob, m.Store(0).Owner, "store keeps its owner")

	require.NoError(t, m.AddStoreOwner(alice, bob))
	require.NoError(t, m.ChangeStoreName(bob, 0, "mine again"))
}

func TestProductMutations(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.ChangeProductName(bob, 0, 0, "P2"))
	require.NoError(t, m.ChangeProductDescription(bob, 0, 0, "QmOther"))
	require.NoError(t, m.ChangeProductPrice(bob, 0, 0, u(7)))
	require.NoError(t, m.ChangeProductQuantity(bob, 0, 0, u(3)))

	p := m.Product(0, 0)
	assert.Equal(t, "P2", p.Name)
	assert.Equal(t, "QmOther", p.Description)
	assert.Equal(t, u(7), p.Price)
	assert.Equal(t, u(3), p.Quantity)

	events := m.Log().Events(4)
	assert.Equal(t, []event.Kind{
		event.ProductNameChanged,
		event.ProductDescriptionChanged,
		event.ProductPriceChanged,
		event.ProductQuantityChanged,
	}, kinds(events))
	price, err := events[2].Price()
	require.NoError(t, err)
	assert.Equal(t, u(7), price)
}

func TestRemoveProduct_ZeroesAndNeverReuses(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.RemoveProduct(bob, 0, 0))

	assert.Equal(t, Product{StoreID: 0, ID: 0}, m.Product(0, 0))
	assert.False(t, m.ProductActive(0, 0))

	pid, err := m.AddProduct(bob, 0, "P", "QmHandle", u(2), u(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), pid)

	// A retired product cannot be modified or removed again.
	assert.ErrorIs(t, m.ChangeProductName(bob, 0, 0, "back"), ErrUnauthorized)
	assert.ErrorIs(t, m.RemoveProduct(bob, 0, 0), ErrUnauthorized)
	assert.Equal(t, "", m.Product(0, 0).Name)
}

func TestRemoveStore_ZeroesAndNeverReuses(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(4), 0, 0, u(2)))
	require.NoError(t, m.RemoveStore(bob, 0))

	assert.Equal(t, Store{ID: 0}, m.Store(0))
	assert.Equal(t, Product{StoreID: 0, ID: 0}, m.Product(0, 0))
	assert.Empty(t, m.ActiveStores())

	sid, err := m.CreateStore(bob, "S")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sid)
	assert.ErrorIs(t, m.WithdrawFunds(bob, 0, u(1)), ErrUnauthorized)
}

func TestPurchase_UpdatesStockAndBalance(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(6), 0, 0, u(3)))

	assert.Equal(t, u(2), m.Product(0, 0).Quantity)
	assert.Equal(t, u(6), m.Store(0).Balance)

	last := m.Log().Events(m.Log().Len() - 1)
	require.Len(t, last, 1)
	assert.Equal(t, event.ProductPurchased, last[0].Kind)
	assert.Equal(t, "carol", last[0].Principal())
	amount, err := last[0].Amount()
	require.NoError(t, err)
	assert.Equal(t, u(6), amount)
}

func TestPurchase_Failures(t *testing.T) {
	tests := []struct {
		name     string
		caller   Principal
		value    uint64
		store    uint64
		product  uint64
		quantity uint256.Int
		want     *Error
	}{
		{"underpay", carol, 3, 0, 0, u(2), ErrPaymentMismatch},
		{"overpay", carol, 5, 0, 0, u(2), ErrPaymentMismatch},
		{"more than stock", carol, 12, 0, 0, u(6), ErrInsufficientQuantity},
		{"unknown product", carol, 2, 0, 9, u(1), ErrInsufficientQuantity},
		{"unknown store", carol, 2, 7, 0, u(1), ErrInsufficientQuantity},
		{"anonymous", NoPrincipal, 2, 0, 0, u(1), ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := seeded(t)
			before := m.Log().Len()

			err := m.PurchaseProduct(tt.caller, u(tt.value), tt.store, tt.product, tt.quantity)
			assert.ErrorIs(t, err, tt.want)

			assert.Equal(t, u(5), m.Product(0, 0).Quantity)
			assert.Equal(t, u(0), m.Store(0).Balance)
			assert.Equal(t, before, m.Log().Len())
		})
	}
}

func TestPurchase_CostOverflow(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.ChangeProductPrice(bob, 0, 0, safemath.Max()))

	err := m.PurchaseProduct(carol, u(0), 0, 0, u(2))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	assert.Equal(t, u(5), m.Product(0, 0).Quantity)
}

func TestPurchase_BalanceOverflow(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.ChangeProductPrice(bob, 0, 0, safemath.Max()))
	require.NoError(t, m.PurchaseProduct(carol, safemath.Max(), 0, 0, u(1)))

	err := m.PurchaseProduct(carol, safemath.Max(), 0, 0, u(1))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)
	assert.Equal(t, u(4), m.Product(0, 0).Quantity)
	assert.Equal(t, safemath.Max(), m.Store(0).Balance)
}

func TestPurchase_ZeroQuantityOfRetiredProduct(t *testing.T) {
	m, _ := seeded(t)
	require.NoError(t, m.RemoveProduct(bob, 0, 0))

	require.NoError(t, m.PurchaseProduct(carol, u(0), 0, 0, u(0)))
	assert.Equal(t, u(0), m.Store(0).Balance)
	assert.ErrorIs(t, m.PurchaseProduct(carol, u(0), 0, 0, u(1)), ErrInsufficientQuantity)
}

func TestWithdraw_PaysOwner(t *testing.T) {
	m, payout := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(10), 0, 0, u(5)))

	err := m.WithdrawFunds(bob, 0, u(11))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, u(10), m.Store(0).Balance)

	require.NoError(t, m.WithdrawFunds(bob, 0, u(4)))
	assert.Equal(t, u(6), m.Store(0).Balance)
	assert.Equal(t, u(4), payout.paid[bob])

	require.NoError(t, m.WithdrawFunds(bob, 0, u(6)))
	assert.Equal(t, u(0), m.Store(0).Balance)
	assert.Equal(t, u(10), payout.paid[bob])
}

func TestWithdraw_TransferFailureRestoresBalance(t *testing.T) {
	m, payout := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(4), 0, 0, u(2)))
	payout.fail = errors.New("recipient rejected value")
	before := m.Log().Len()

	err := m.WithdrawFunds(bob, 0, u(3))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.ErrorContains(t, err, "recipient rejected value")
	assert.Equal(t, u(4), m.Store(0).Balance)
	assert.Equal(t, before, m.Log().Len())
}

func TestWithdraw_NoPayoutConfigured(t *testing.T) {
	m := New(owner, nil)
	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.AddStoreOwner(alice, bob))
	_, err := m.CreateStore(bob, "S")
	require.NoError(t, err)

	assert.ErrorIs(t, m.WithdrawFunds(bob, 0, u(0)), ErrTransferFailed)
}

func TestWithdraw_ReentrantCallRejected(t *testing.T) {
	m, payout := seeded(t)
	require.NoError(t, m.PurchaseProduct(carol, u(10), 0, 0, u(5)))

	var reentered []error
	var seenBalance uint256.Int
	payout.during = func() {
		payout.during = nil
		seenBalance = m.Store(0).Balance
		reentered = append(reentered,
			m.WithdrawFunds(bob, 0, u(4)),
			m.PurchaseProduct(carol, u(0), 0, 0, u(0)),
			m.ChangeStoreName(bob, 0, "mid-transfer"),
		)
	}

	require.NoError(t, m.WithdrawFunds(bob, 0, u(8)))
	assert.Equal(t, u(2), seenBalance, "balance is reduced before the transfer")
	require.Len(t, reentered, 3)
	for _, err := range reentered {
		assert.ErrorIs(t, err, ErrReentrantCall)
	}
	assert.Equal(t, u(2), m.Store(0).Balance)
	assert.Equal(t, u(8), payout.paid[bob])
	assert.Equal(t, "S", m.Store(0).Name)

	// Guard is released afterward.
	require.NoError(t, m.WithdrawFunds(bob, 0, u(2)))
}

func TestAccessors_Enumerate(t *testing.T) {
	m, _ := seeded(t)
	_, err := m.AddProduct(bob, 0, "Q", "", u(1), u(1))
	require.NoError(t, err)
	sid, err := m.CreateStore(bob, "T")
	require.NoError(t, err)
	require.NoError(t, m.RemoveProduct(bob, 0, 0))

	assert.Equal(t, uint64(2), m.NextStoreID())
	assert.Equal(t, uint64(2), m.NextProductID(0))
	assert.Equal(t, uint64(0), m.NextProductID(99))
	require.Len(t, m.ActiveStores(), 2)
	assert.Equal(t, sid, m.ActiveStores()[1].ID)
	products := m.ActiveProducts(0)
	require.Len(t, products, 1)
	assert.Equal(t, "Q", products[0].Name)
	assert.Nil(t, m.ActiveProducts(99))

	require.NoError(t, m.PurchaseProduct(carol, u(1), 0, 1, u(1)))
	total, err := m.TotalBalance()
	require.NoError(t, err)
	assert.Equal(t, u(1), total)
}

// TestEndToEnd walks the full lifecycle and checks every event in order.
func TestEndToEnd(t *testing.T) {
	payout := newRecordingPayout()
	m := New(owner, payout)
	var observed []event.Kind
	m.Log().Subscribe(event.ObserverFunc(func(e event.Event) {
		observed = append(observed, e.Kind)
	}))

	require.NoError(t, m.AddAdministrator(owner, alice))
	require.NoError(t, m.AddStoreOwner(alice, bob))
	sid, err := m.CreateStore(bob, "S")
	require.NoError(t, err)
	assert.Equal(t, u(0), m.Store(sid).Balance)
	pid, err := m.AddProduct(bob, sid, "P", "QmDesc", u(2), u(1))
	require.NoError(t, err)

	require.NoError(t, m.PurchaseProduct(carol, u(2), sid, pid, u(1)))
	assert.Equal(t, u(0), m.Product(sid, pid).Quantity)
	assert.Equal(t, u(2), m.Store(sid).Balance)

	require.NoError(t, m.WithdrawFunds(bob, sid, u(1)))
	assert.Equal(t, u(1), m.Store(sid).Balance)
	assert.Equal(t, u(1), payout.paid[bob])

	require.NoError(t, m.RemoveProduct(bob, sid, pid))
	assert.Equal(t, Product{StoreID: sid, ID: pid}, m.Product(sid, pid))
	require.NoError(t, m.RemoveStore(bob, sid))
	assert.Equal(t, Store{ID: sid}, m.Store(sid))

	require.NoError(t, m.RemoveStoreOwner(alice, bob))
	require.NoError(t, m.RemoveAdministrator(owner, alice))
	require.NoError(t, m.CloseMarket(owner))
	require.NoError(t, m.OpenMarket(owner))

	want := []event.Kind{
		event.AdministratorAdded,
		event.StoreOwnerAdded,
		event.StoreCreated,
		event.ProductAdded,
		event.ProductPurchased,
		event.FundsWithdrawn,
		event.ProductRemoved,
		event.StoreRemoved,
		event.StoreOwnerRemoved,
		event.AdministratorRemoved,
		event.MarketClosed,
		event.MarketOpened,
	}
	assert.Equal(t, want, observed)
	assert.Equal(t, want, kinds(m.Log().Events(0)))
}
