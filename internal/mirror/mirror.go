// Package mirror rebuilds a client's view of the market from the event
// stream alone, the way a UI that subscribes from the beginning of history
// would.
//
// A Mirror is an event.Observer. It never consults the ledger, so comparing
// the two is a cross-check of the stream (see engine.Verify).
package mirror

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

// Store is the mirrored state of an active store.
type Store struct {
	ID      uint64      `json:"store_id"`
	Owner   string      `json:"owner"`
	Name    string      `json:"name"`
	Balance uint256.Int `json:"-"`
}

// Product is the mirrored state of an active product.
type Product struct {
	StoreID     uint64      `json:"store_id"`
	ID          uint64      `json:"product_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       uint256.Int `json:"-"`
	Quantity    uint256.Int `json:"-"`
}

type storeEntry struct {
	Store
	products map[uint64]*Product
}

// Mirror is safe for concurrent use.
type Mirror struct {
	mu             sync.RWMutex
	administrators map[string]struct{}
	storeOwners    map[string]struct{}
	open           bool
	stores         map[uint64]*storeEntry
	lastSeq        int64
	err            error
}

// New returns an empty mirror of an open market.
func New() *Mirror {
	return &Mirror{
		administrators: make(map[string]struct{}),
		storeOwners:    make(map[string]struct{}),
		open:           true,
		stores:         make(map[uint64]*storeEntry),
	}
}

// Observe applies one event. Events must arrive in seq order; an event that
// does not fit the mirrored state is recorded in Err and otherwise ignored.
func (m *Mirror) Observe(e event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Seq != m.lastSeq+1 {
		m.fail(fmt.Errorf("event seq %d after %d", e.Seq, m.lastSeq))
	}
	m.lastSeq = e.Seq
	if err := m.apply(e); err != nil {
		m.fail(fmt.Errorf("event %d (%s): %w", e.Seq, e.Kind, err))
	}
}

func (m *Mirror) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *Mirror) apply(e event.Event) error {
	switch e.Kind {
	case event.MarketOpened:
		m.open = true
	case event.MarketClosed:
		m.open = false
	case event.AdministratorAdded:
		m.administrators[e.Principal()] = struct{}{}
	case event.AdministratorRemoved:
		delete(m.administrators, e.Principal())
	case event.StoreOwnerAdded:
		m.storeOwners[e.Principal()] = struct{}{}
	case event.StoreOwnerRemoved:
		delete(m.storeOwners, e.Principal())

	case event.StoreCreated:
		m.stores[e.StoreID()] = &storeEntry{
			Store:    Store{ID: e.StoreID(), Owner: e.Principal(), Name: e.Name()},
			products: make(map[uint64]*Product),
		}
	case event.StoreRemoved:
		delete(m.stores, e.StoreID())
	case event.StoreNameChanged:
		st, ok := m.stores[e.StoreID()]
		if !ok {
			return fmt.Errorf("unknown store %d", e.StoreID())
		}
		st.Name = e.Name()

	case event.ProductAdded:
		st, ok := m.stores[e.StoreID()]
		if !ok {
			return fmt.Errorf("unknown store %d", e.StoreID())
		}
		price, err := e.Price()
		if err != nil {
			return err
		}
		qty, err := e.Quantity()
		if err != nil {
			return err
		}
		st.products[e.ProductID()] = &Product{
			StoreID:     e.StoreID(),
			ID:          e.ProductID(),
			Name:        e.Name(),
			Description: e.Description(),
			Price:       price,
			Quantity:    qty,
		}
	case event.ProductRemoved:
		st, ok := m.stores[e.StoreID()]
		if !ok {
			return fmt.Errorf("unknown store %d", e.StoreID())
		}
		delete(st.products, e.ProductID())
	case event.ProductNameChanged:
		p, err := m.product(e)
		if err != nil {
			return err
		}
		p.Name = e.Name()
	case event.ProductDescriptionChanged:
		p, err := m.product(e)
		if err != nil {
			return err
		}
		p.Description = e.Description()
	case event.ProductPriceChanged:
		p, err := m.product(e)
		if err != nil {
			return err
		}
		price, err := e.Price()
		if err != nil {
			return err
		}
		p.Price = price
	case event.ProductQuantityChanged:
		p, err := m.product(e)
		if err != nil {
			return err
		}
		qty, err := e.Quantity()
		if err != nil {
			return err
		}
		p.Quantity = qty

	case event.ProductPurchased:
		qty, err := e.Quantity()
		if err != nil {
			return err
		}
		amount, err := e.Amount()
		if err != nil {
			return err
		}
		st, ok := m.stores[e.StoreID()]
		if !ok {
			if qty.IsZero() && amount.IsZero() {
				return nil
			}
			return fmt.Errorf("unknown store %d", e.StoreID())
		}
		if p, ok := st.products[e.ProductID()]; ok {
			if p.Quantity, err = safemath.Sub(p.Quantity, qty); err != nil {
				return err
			}
		} else if !qty.IsZero() {
			return fmt.Errorf("unknown product %d/%d", e.StoreID(), e.ProductID())
		}
		if st.Balance, err = safemath.Add(st.Balance, amount); err != nil {
			return err
		}
	case event.FundsWithdrawn:
		st, ok := m.stores[e.StoreID()]
		if !ok {
			return fmt.Errorf("unknown store %d", e.StoreID())
		}
		amount, err := e.Amount()
		if err != nil {
			return err
		}
		if st.Balance, err = safemath.Sub(st.Balance, amount); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	return nil
}

func (m *Mirror) product(e event.Event) (*Product, error) {
	st, ok := m.stores[e.StoreID()]
	if !ok {
		return nil, fmt.Errorf("unknown store %d", e.StoreID())
	}
	p, ok := st.products[e.ProductID()]
	if !ok {
		return nil, fmt.Errorf("unknown product %d/%d", e.StoreID(), e.ProductID())
	}
	return p, nil
}

// Err returns the first inconsistency seen, if any.
func (m *Mirror) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// LastSeq is the seq of the last observed event.
func (m *Mirror) LastSeq() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSeq
}

// Open reports the mirrored open/closed flag.
func (m *Mirror) Open() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open
}

// Administrators returns the mirrored administrators, sorted.
func (m *Mirror) Administrators() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.administrators)
}

// StoreOwners returns the mirrored store owners, sorted.
func (m *Mirror) StoreOwners() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.storeOwners)
}

// Stores returns every active store ordered by ID.
func (m *Mirror) Stores() []Store {
	return m.StoresOf("")
}

// StoresOf returns the active stores of owner ordered by ID. An empty owner
// matches every store.
func (m *Mirror) StoresOf(owner string) []Store {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Store{}
	for _, st := range m.stores {
		if owner == "" || st.Owner == owner {
			out = append(out, st.Store)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Products returns the active products of a store ordered by ID.
func (m *Mirror) Products(storeID uint64) []Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Product{}
	st, ok := m.stores[storeID]
	if !ok {
		return out
	}
	for _, p := range st.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
