package market

import (
	"fmt"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

// Replay rebuilds a market from a previously recorded event stream. Events
// are applied as facts without role checks, but each one must be consistent
// with the state built so far: identifiers must match the allocator, targets
// must be active and balances must not underflow.
func Replay(owner Principal, events []event.Event, payout Payout) (*Market, error) {
	log, err := event.Restore(events)
	if err != nil {
		return nil, err
	}
	m := newMarket(owner, log, payout)
	for _, e := range events {
		if err := m.apply(e); err != nil {
			return nil, fmt.Errorf("replay event %d (%s): %w", e.Seq, e.Kind, err)
		}
	}
	return m, nil
}

func (m *Market) apply(e event.Event) error {
	r, l := m.Registry, m.Ledger
	switch e.Kind {
	case event.MarketOpened:
		r.open = true
	case event.MarketClosed:
		r.open = false
	case event.AdministratorAdded:
		r.administrators[Principal(e.Principal())] = struct{}{}
	case event.AdministratorRemoved:
		delete(r.administrators, Principal(e.Principal()))
	case event.StoreOwnerAdded:
		r.storeOwners[Principal(e.Principal())] = struct{}{}
	case event.StoreOwnerRemoved:
		delete(r.storeOwners, Principal(e.Principal()))

	case event.StoreCreated:
		if want := l.stores.next(); e.StoreID() != want {
			return fmt.Errorf("store id %d, allocator at %d", e.StoreID(), want)
		}
		l.stores.allocate(storeFields{owner: Principal(e.Principal()), name: e.Name()})
	case event.StoreRemoved:
		if !l.stores.retire(e.StoreID()) {
			return fmt.Errorf("store %d is not active", e.StoreID())
		}
	case event.StoreNameChanged:
		st, err := l.replayStore(e)
		if err != nil {
			return err
		}
		st.name = e.Name()

	case event.ProductAdded:
		st, err := l.replayStore(e)
		if err != nil {
			return err
		}
		if want := st.products.next(); e.ProductID() != want {
			return fmt.Errorf("product id %d, allocator at %d", e.ProductID(), want)
		}
		price, err := e.Price()
		if err != nil {
			return err
		}
		quantity, err := e.Quantity()
		if err != nil {
			return err
		}
		st.products.allocate(productFields{
			name:        e.Name(),
			description: e.Description(),
			price:       price,
			quantity:    quantity,
		})
	case event.ProductRemoved:
		st, err := l.replayStore(e)
		if err != nil {
			return err
		}
		if !st.products.retire(e.ProductID()) {
			return fmt.Errorf("product %d/%d is not active", e.StoreID(), e.ProductID())
		}
	case event.ProductNameChanged:
		_, p, err := l.replayProduct(e)
		if err != nil {
			return err
		}
		p.name = e.Name()
	case event.ProductDescriptionChanged:
		_, p, err := l.replayProduct(e)
		if err != nil {
			return err
		}
		p.description = e.Description()
	case event.ProductPriceChanged:
		_, p, err := l.replayProduct(e)
		if err != nil {
			return err
		}
		if p.price, err = e.Price(); err != nil {
			return err
		}
	case event.ProductQuantityChanged:
		_, p, err := l.replayProduct(e)
		if err != nil {
			return err
		}
		if p.quantity, err = e.Quantity(); err != nil {
			return err
		}

	case event.ProductPurchased:
		quantity, err := e.Quantity()
		if err != nil {
			return err
		}
		amount, err := e.Amount()
		if err != nil {
			return err
		}
		if quantity.IsZero() && amount.IsZero() && !l.ProductActive(e.StoreID(), e.ProductID()) {
			return nil
		}
		st, p, err := l.replayProduct(e)
		if err != nil {
			return err
		}
		if p.quantity, err = safemath.Sub(p.quantity, quantity); err != nil {
			return err
		}
		if st.balance, err = safemath.Add(st.balance, amount); err != nil {
			return err
		}
	case event.FundsWithdrawn:
		st, err := l.replayStore(e)
		if err != nil {
			return err
		}
		amount, err := e.Amount()
		if err != nil {
			return err
		}
		if st.balance, err = safemath.Sub(st.balance, amount); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

func (l *Ledger) replayStore(e event.Event) (*storeFields, error) {
	st, ok := l.stores.active(e.StoreID())
	if !ok {
		return nil, fmt.Errorf("store %d is not active", e.StoreID())
	}
	return st, nil
}

func (l *Ledger) replayProduct(e event.Event) (*storeFields, *productFields, error) {
	st, err := l.replayStore(e)
	if err != nil {
		return nil, nil, err
	}
	p, ok := st.products.active(e.ProductID())
	if !ok {
		return nil, nil, fmt.Errorf("product %d/%d is not active", e.StoreID(), e.ProductID())
	}
	return st, p, nil
}
