package wallet

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/safemath"
)

func u(n uint64) uint256.Int { return safemath.FromUint64(n) }

func TestBook_CreditDebit(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit("carol", u(10)))
	require.NoError(t, b.Debit("carol", u(4)))
	assert.Equal(t, u(6), b.Balance("carol"))
	assert.Equal(t, u(0), b.Balance("nobody"))

	err := b.Debit("carol", u(7))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, u(6), b.Balance("carol"))
}

func TestBook_CreditOverflow(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit("carol", safemath.Max()))
	err := b.Credit("carol", u(1))
	assert.ErrorIs(t, err, safemath.ErrOverflow)
	assert.Equal(t, safemath.Max(), b.Balance("carol"))
}

func TestBook_TransferIsAllOrNothing(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit("carol", u(5)))
	require.NoError(t, b.Credit(Custody, safemath.Max()))
	b.Commit()

	err := b.Transfer("carol", Custody, u(1))
	assert.ErrorIs(t, err, safemath.ErrOverflow)
	assert.Equal(t, u(5), b.Balance("carol"))
	assert.Empty(t, b.Dirty())
}

func TestBook_RollbackRestoresAndForgetsNewAccounts(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit("carol", u(5)))
	b.Commit()

	require.NoError(t, b.Transfer("carol", Custody, u(3)))
	require.NoError(t, b.Credit("dave", u(1)))
	assert.Equal(t, []Account{
		{Principal: Custody, Balance: u(3)},
		{Principal: "carol", Balance: u(2)},
		{Principal: "dave", Balance: u(1)},
	}, b.Dirty())

	b.Rollback()
	assert.Equal(t, []Account{{Principal: "carol", Balance: u(5)}}, b.Accounts())
	assert.Empty(t, b.Dirty())
}

func TestBook_PayoutDrawsOnCustody(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit(Custody, u(4)))
	payout := b.Payout()

	require.NoError(t, payout.Transfer("bob", u(3)))
	assert.Equal(t, u(1), b.Balance(Custody))
	assert.Equal(t, u(3), b.Balance("bob"))

	assert.ErrorIs(t, payout.Transfer("bob", u(2)), ErrInsufficientFunds)
}

func TestBook_LoadAndReserved(t *testing.T) {
	b := New()
	b.Load([]Account{{Principal: "bob", Balance: u(9)}})
	assert.Equal(t, u(9), b.Balance("bob"))
	assert.Empty(t, b.Dirty())

	assert.True(t, Reserved(Custody))
	assert.False(t, Reserved(market.Principal("bob")))
}

// TestBook_WithMarket funds a purchase and a withdrawal end to end.
func TestBook_WithMarket(t *testing.T) {
	b := New()
	require.NoError(t, b.Credit("carol", u(10)))

	m := market.New("owner", b.Payout())
	require.NoError(t, m.AddAdministrator("owner", "alice"))
	require.NoError(t, m.AddStoreOwner("alice", "bob"))
	sid, err := m.CreateStore("bob", "S")
	require.NoError(t, err)
	pid, err := m.AddProduct("bob", sid, "P", "", u(3), u(2))
	require.NoError(t, err)

	require.NoError(t, b.Transfer("carol", Custody, u(6)))
	require.NoError(t, m.PurchaseProduct("carol", u(6), sid, pid, u(2)))
	require.NoError(t, m.WithdrawFunds("bob", sid, u(5)))

	assert.Equal(t, u(4), b.Balance("carol"))
	assert.Equal(t, u(1), b.Balance(Custody))
	assert.Equal(t, u(5), b.Balance("bob"))
	assert.Equal(t, u(1), m.Store(sid).Balance)
}
