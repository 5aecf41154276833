package market

import (
	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/safemath"
)

// Store returns the store view for storeID. Retired and unknown IDs read as
// zero fields.
func (l *Ledger) Store(storeID uint64) Store {
	view := Store{ID: storeID}
	if st, ok := l.stores.active(storeID); ok {
		view.Owner = st.owner
		view.Name = st.name
		view.Balance = st.balance
	}
	return view
}

// Product returns the product view. Retired and unknown IDs, and any product
// of a retired store, read as zero fields.
func (l *Ledger) Product(storeID, productID uint64) Product {
	view := Product{StoreID: storeID, ID: productID}
	st, ok := l.stores.active(storeID)
	if !ok {
		return view
	}
	if p, ok := st.products.active(productID); ok {
		view.Name = p.name
		view.Description = p.description
		view.Price = p.price
		view.Quantity = p.quantity
	}
	return view
}

// NextStoreID is the identifier the next CreateStore will allocate.
func (l *Ledger) NextStoreID() uint64 { return l.stores.next() }

// NextProductID is the identifier the next AddProduct on storeID will
// allocate, or 0 if the store is not active.
func (l *Ledger) NextProductID(storeID uint64) uint64 {
	if st, ok := l.stores.active(storeID); ok {
		return st.products.next()
	}
	return 0
}

// StoreActive reports whether storeID has been allocated and not retired.
func (l *Ledger) StoreActive(storeID uint64) bool {
	_, ok := l.stores.active(storeID)
	return ok
}

// ProductActive reports whether the product exists in an active store and
// has not been retired.
func (l *Ledger) ProductActive(storeID, productID uint64) bool {
	st, ok := l.stores.active(storeID)
	if !ok {
		return false
	}
	_, ok = st.products.active(productID)
	return ok
}

// ActiveStores returns every active store in ID order.
func (l *Ledger) ActiveStores() []Store {
	var out []Store
	for id := uint64(0); id < l.stores.next(); id++ {
		if l.StoreActive(id) {
			out = append(out, l.Store(id))
		}
	}
	return out
}

// ActiveProducts returns every active product of storeID in ID order.
func (l *Ledger) ActiveProducts(storeID uint64) []Product {
	st, ok := l.stores.active(storeID)
	if !ok {
		return nil
	}
	var out []Product
	for id := uint64(0); id < st.products.next(); id++ {
		if _, ok := st.products.active(id); ok {
			out = append(out, l.Product(storeID, id))
		}
	}
	return out
}

// TotalBalance sums the balances of all active stores.
func (l *Ledger) TotalBalance() (uint256.Int, error) {
	var total uint256.Int
	for _, st := range l.ActiveStores() {
		sum, err := safemath.Add(total, st.Balance)
		if err != nil {
			return uint256.Int{}, arithmetic(err, "total balance")
		}
		total = sum
	}
	return total, nil
}
