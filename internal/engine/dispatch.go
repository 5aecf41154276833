package engine

import (
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
)

// dispatch decodes the call and applies it to the market. The returned ID
// is the allocated store or product for create_store and add_product.
func dispatch(m *market.Market, c Call) (uint64, error) {
	r := &argReader{op: c.Op, args: c.Args}

	if c.Op != OpPurchaseProduct && !c.Value.IsZero() {
		return 0, invalidCall(c.Op, "only %s accepts attached value", OpPurchaseProduct)
	}

	switch c.Op {
	case OpAddAdministrator:
		p := r.principal()
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.AddAdministrator(c.Caller, p)

	case OpRemoveAdministrator:
		p := r.principal()
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.RemoveAdministrator(c.Caller, p)

	case OpAddStoreOwner:
		p := r.principal()
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.AddStoreOwner(c.Caller, p)

	case OpRemoveStoreOwner:
		p := r.principal()
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.RemoveStoreOwner(c.Caller, p)

	case OpOpenMarket:
		return 0, m.OpenMarket(c.Caller)

	case OpCloseMarket:
		return 0, m.CloseMarket(c.Caller)

	case OpCreateStore:
		name := r.str(event.ArgName)
		if r.err != nil {
			return 0, r.err
		}
		return m.CreateStore(c.Caller, name)

	case OpChangeStoreName:
		sid, name := r.id(event.ArgStoreID), r.str(event.ArgName)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.ChangeStoreName(c.Caller, sid, name)

	case OpRemoveStore:
		sid := r.id(event.ArgStoreID)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.RemoveStore(c.Caller, sid)

	case OpAddProduct:
		sid := r.id(event.ArgStoreID)
		name := r.str(event.ArgName)
		desc := r.str(event.ArgDescription)
		price := r.amount(event.ArgPrice)
		qty := r.amount(event.ArgQuantity)
		if r.err != nil {
			return 0, r.err
		}
		return m.AddProduct(c.Caller, sid, name, desc, price, qty)

	case OpChangeProductName:
		sid, pid, name := r.id(event.ArgStoreID), r.id(event.ArgProductID), r.str(event.ArgName)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.ChangeProductName(c.Caller, sid, pid, name)

	case OpChangeProductDescription:
		sid, pid, desc := r.id(event.ArgStoreID), r.id(event.ArgProductID), r.str(event.ArgDescription)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.ChangeProductDescription(c.Caller, sid, pid, desc)

	case OpChangeProductPrice:
		sid, pid, price := r.id(event.ArgStoreID), r.id(event.ArgProductID), r.amount(event.ArgPrice)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.ChangeProductPrice(c.Caller, sid, pid, price)

	case OpChangeProductQuantity:
		sid, pid, qty := r.id(event.ArgStoreID), r.id(event.ArgProductID), r.amount(event.ArgQuantity)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.ChangeProductQuantity(c.Caller, sid, pid, qty)

	case OpRemoveProduct:
		sid, pid := r.id(event.ArgStoreID), r.id(event.ArgProductID)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.RemoveProduct(c.Caller, sid, pid)

	case OpPurchaseProduct:
		sid, pid, qty := r.id(event.ArgStoreID), r.id(event.ArgProductID), r.amount(event.ArgQuantity)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.PurchaseProduct(c.Caller, c.Value, sid, pid, qty)

	case OpWithdrawFunds:
		sid, amount := r.id(event.ArgStoreID), r.amount(event.ArgAmount)
		if r.err != nil {
			return 0, r.err
		}
		return 0, m.WithdrawFunds(c.Caller, sid, amount)
	}

	return 0, invalidCall(c.Op, "unknown operation %q", c.Op)
}
