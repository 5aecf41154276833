package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/mirror"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

// Report is the outcome of Verify.
type Report struct {
	Events   int64       `json:"events"`
	Stores   int         `json:"stores"`
	Products int         `json:"products"`
	Custody  uint256.Int `json:"-"`
	Balances uint256.Int `json:"-"`
	Problems []string    `json:"problems"`
}

// OK reports whether no problem was found.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Stranded is custody not owed to any active store: balances of removed
// stores that were never withdrawn.
func (r Report) Stranded() uint256.Int {
	if r.Custody.Lt(&r.Balances) {
		return uint256.Int{}
	}
	var z uint256.Int
	z.Sub(&r.Custody, &r.Balances)
	return z
}

// Verify re-derives the market from the stored log twice, once through the
// ledger and once through a client mirror, and checks that they agree and
// that custody covers every store balance.
//
// An error means the store could not be read or the log does not replay;
// disagreements are listed in the report.
func Verify(ctx context.Context, st *store.Store) (Report, error) {
	var r Report

	owner, err := st.Meta(ctx, MetaOwner)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	events, err := st.ReadEvents(ctx, 0)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	r.Events = int64(len(events))

	m, err := market.Replay(market.Principal(owner), events, nil)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	mir := mirror.New()
	for _, e := range events {
		mir.Observe(e)
	}
	if err := mir.Err(); err != nil {
		r.problem("mirror: %v", err)
	}

	compareRoles(&r, m, mir)
	compareStores(&r, m, mir)

	accounts, err := st.ReadAccounts(ctx)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	for _, a := range accounts {
		if a.Principal == wallet.Custody {
			r.Custody = a.Balance
		}
	}
	if r.Balances, err = m.TotalBalance(); err != nil {
		r.problem("store balances: %v", err)
	}
	if r.Custody.Lt(&r.Balances) {
		r.problem("custody %s is below total store balance %s", r.Custody.Dec(), r.Balances.Dec())
	}
	return r, nil
}

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

func compareRoles(r *Report, m *market.Market, mir *mirror.Mirror) {
	if m.IsOpen() != mir.Open() {
		r.problem("open flag: ledger %t, mirror %t", m.IsOpen(), mir.Open())
	}
	if got, want := principals(m.Administrators()), mir.Administrators(); !slices.Equal(got, want) {
		r.problem("administrators: ledger %v, mirror %v", got, want)
	}
	if got, want := principals(m.StoreOwners()), mir.StoreOwners(); !slices.Equal(got, want) {
		r.problem("store owners: ledger %v, mirror %v", got, want)
	}
}

func compareStores(r *Report, m *market.Market, mir *mirror.Mirror) {
	ledgerStores := m.ActiveStores()
	mirrorStores := mir.Stores()
	r.Stores = len(ledgerStores)
	if len(ledgerStores) != len(mirrorStores) {
		r.problem("active stores: ledger %d, mirror %d", len(ledgerStores), len(mirrorStores))
		return
	}
	for i, ls := range ledgerStores {
		ms := mirrorStores[i]
		if ls.ID != ms.ID || string(ls.Owner) != ms.Owner || ls.Name != ms.Name || ls.Balance != ms.Balance {
			r.problem("store %d: ledger %+v, mirror %+v", ls.ID, ls, ms)
			continue
		}
		lp, mp := m.ActiveProducts(ls.ID), mir.Products(ls.ID)
		r.Products += len(lp)
		if len(lp) != len(mp) {
			r.problem("store %d products: ledger %d, mirror %d", ls.ID, len(lp), len(mp))
			continue
		}
		for j := range lp {
			a, b := lp[j], mp[j]
			if a.ID != b.ID || a.Name != b.Name || a.Description != b.Description || a.Price != b.Price || a.Quantity != b.Quantity {
				r.problem("product %d/%d: ledger %+v, mirror %+v", ls.ID, a.ID, a, b)
			}
		}
	}
}

func principals(ps []market.Principal) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
