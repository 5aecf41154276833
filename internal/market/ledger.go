package market

import (
	"github.com/roach88/bazaar/internal/event"
)

// Ledger holds stores, their products and their balances.
type Ledger struct {
	access *Registry
	stores slots[storeFields]
	log    *event.Log
	payout Payout

	// transferring is set while WithdrawFunds waits on the payout.
	transferring bool
}

// Market is the registry and ledger over one shared event log.
type Market struct {
	*Registry
	*Ledger
	log *event.Log
}

// New returns an open market owned by owner with an empty log.
func New(owner Principal, payout Payout) *Market {
	return newMarket(owner, event.NewLog(), payout)
}

func newMarket(owner Principal, log *event.Log, payout Payout) *Market {
	reg := newRegistry(owner, log)
	return &Market{
		Registry: reg,
		Ledger: &Ledger{
			access: reg,
			log:    log,
			payout: payout,
		},
		log: log,
	}
}

// Log returns the market's event log.
func (m *Market) Log() *event.Log { return m.log }

// begin runs the checks shared by every trading mutation.
func (l *Ledger) begin() error {
	if l.transferring {
		return &Error{Code: CodeReentrantCall, Message: "a withdrawal transfer is in progress"}
	}
	if !l.access.IsOpen() {
		return marketClosed()
	}
	return nil
}

// ownedStore returns the active store storeID if caller owns it and still
// holds the store-owner role.
func (l *Ledger) ownedStore(caller Principal, storeID uint64) (*storeFields, error) {
	st, ok := l.stores.active(storeID)
	if !ok || st.owner != caller || !l.access.IsStoreOwner(caller) {
		return nil, storeUnauthorized(caller, storeID)
	}
	return st, nil
}

// ownedProduct is ownedStore plus an active product within it.
func (l *Ledger) ownedProduct(caller Principal, storeID, productID uint64) (*productFields, error) {
	st, err := l.ownedStore(caller, storeID)
	if err != nil {
		return nil, err
	}
	p, ok := st.products.active(productID)
	if !ok {
		e := storeUnauthorized(caller, storeID)
		e.Message = "product is not active in the caller's store"
		e.Details["product_id"] = formatID(productID)
		return nil, e
	}
	return p, nil
}

func storeUnauthorized(caller Principal, storeID uint64) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: "caller must own the store",
		Details: map[string]string{"caller": string(caller), "store_id": formatID(storeID)},
	}
}
