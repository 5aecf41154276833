// Package wallet tracks the native value held by principals and by the
// market's custody account.
//
// A purchase moves the attached value from the buyer into custody; a
// withdrawal pays it back out to the store owner through Book.Payout. Every
// change is journaled so the host can roll a failed call back or persist
// exactly the accounts a successful call touched.
package wallet

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/safemath"
)

// Custody is the account holding value paid to the market and not yet
// withdrawn. Principals starting with "@" are reserved for system accounts.
const Custody market.Principal = "@custody"

// ErrInsufficientFunds is returned when a debit exceeds the account balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Account is one principal's balance.
type Account struct {
	Principal market.Principal
	Balance   uint256.Int
}

// Reserved reports whether p names a system account.
func Reserved(p market.Principal) bool {
	return strings.HasPrefix(string(p), "@")
}

type entry struct {
	principal market.Principal
	before    uint256.Int
	existed   bool
}

// Book is an in-memory set of balances with an undo journal.
//
// Book is not safe for concurrent use; the engine owns it.
type Book struct {
	balances map[market.Principal]uint256.Int
	journal  []entry
}

// New returns an empty book.
func New() *Book {
	return &Book{balances: make(map[market.Principal]uint256.Int)}
}

// Load replaces the balances without journaling. Used when restoring from
// storage.
func (b *Book) Load(accounts []Account) {
	b.balances = make(map[market.Principal]uint256.Int, len(accounts))
	b.journal = nil
	for _, a := range accounts {
		b.balances[a.Principal] = a.Balance
	}
}

// Balance returns the balance of p. Unknown principals hold zero.
func (b *Book) Balance(p market.Principal) uint256.Int {
	return b.balances[p]
}

// Accounts returns every known account sorted by principal.
func (b *Book) Accounts() []Account {
	out := make([]Account, 0, len(b.balances))
	for p, bal := range b.balances {
		out = append(out, Account{Principal: p, Balance: bal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out
}

// Credit adds amount to p.
func (b *Book) Credit(p market.Principal, amount uint256.Int) error {
	sum, err := safemath.Add(b.balances[p], amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", p, err)
	}
	b.set(p, sum)
	return nil
}

// Debit removes amount from p.
func (b *Book) Debit(p market.Principal, amount uint256.Int) error {
	cur := b.balances[p]
	if cur.Lt(&amount) {
		return fmt.Errorf("debit %s %s (balance %s): %w", p, amount.Dec(), cur.Dec(), ErrInsufficientFunds)
	}
	diff, err := safemath.Sub(cur, amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", p, err)
	}
	b.set(p, diff)
	return nil
}

// Transfer moves amount from one account to another. On failure neither
// account changes.
func (b *Book) Transfer(from, to market.Principal, amount uint256.Int) error {
	mark := len(b.journal)
	if err := b.Debit(from, amount); err != nil {
		return err
	}
	if err := b.Credit(to, amount); err != nil {
		b.undo(mark)
		return err
	}
	return nil
}

// Payout returns the market.Payout that pays withdrawals out of custody.
func (b *Book) Payout() market.Payout {
	return market.PayoutFunc(func(to market.Principal, amount uint256.Int) error {
		return b.Transfer(Custody, to, amount)
	})
}

// Dirty returns the current balances of every account changed since the
// last Commit or Rollback, sorted by principal.
func (b *Book) Dirty() []Account {
	seen := make(map[market.Principal]bool, len(b.journal))
	var out []Account
	for _, e := range b.journal {
		if seen[e.principal] {
			continue
		}
		seen[e.principal] = true
		out = append(out, Account{Principal: e.principal, Balance: b.balances[e.principal]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out
}

// Commit forgets the journal, keeping all changes.
func (b *Book) Commit() {
	b.journal = b.journal[:0]
}

// Rollback undoes every change since the last Commit.
func (b *Book) Rollback() {
	b.undo(0)
}

func (b *Book) set(p market.Principal, v uint256.Int) {
	before, existed := b.balances[p]
	b.journal = append(b.journal, entry{principal: p, before: before, existed: existed})
	b.balances[p] = v
}

func (b *Book) undo(mark int) {
	for i := len(b.journal) - 1; i >= mark; i-- {
		e := b.journal[i]
		if e.existed {
			b.balances[e.principal] = e.before
		} else {
			delete(b.balances, e.principal)
		}
	}
	b.journal = b.journal[:mark]
}
