package engine

import (
	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
)

// Op names a market operation.
type Op string

const (
	OpAddAdministrator         Op = "add_administrator"
	OpRemoveAdministrator      Op = "remove_administrator"
	OpAddStoreOwner            Op = "add_store_owner"
	OpRemoveStoreOwner         Op = "remove_store_owner"
	OpOpenMarket               Op = "open_market"
	OpCloseMarket              Op = "close_market"
	OpCreateStore              Op = "create_store"
	OpChangeStoreName          Op = "change_store_name"
	OpRemoveStore              Op = "remove_store"
	OpAddProduct               Op = "add_product"
	OpChangeProductName        Op = "change_product_name"
	OpChangeProductDescription Op = "change_product_description"
	OpChangeProductPrice       Op = "change_product_price"
	OpChangeProductQuantity    Op = "change_product_quantity"
	OpRemoveProduct            Op = "remove_product"
	OpPurchaseProduct          Op = "purchase_product"
	OpWithdrawFunds            Op = "withdraw_funds"
)

// Ops lists every operation in a stable order.
var Ops = []Op{
	OpAddAdministrator,
	OpRemoveAdministrator,
	OpAddStoreOwner,
	OpRemoveStoreOwner,
	OpOpenMarket,
	OpCloseMarket,
	OpCreateStore,
	OpChangeStoreName,
	OpRemoveStore,
	OpAddProduct,
	OpChangeProductName,
	OpChangeProductDescription,
	OpChangeProductPrice,
	OpChangeProductQuantity,
	OpRemoveProduct,
	OpPurchaseProduct,
	OpWithdrawFunds,
}

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	for _, o := range Ops {
		if o == op {
			return true
		}
	}
	return false
}

// ArgPrincipal is the argument naming the subject of a role change.
// The remaining argument names are shared with event payloads.
const ArgPrincipal = "principal"

// Call is one request against the market.
//
// Args holds the operation's arguments: identifiers as integers, amounts as
// base-10 strings, everything else as strings. Value is the native value
// attached to the call and must be zero for every operation but
// OpPurchaseProduct.
type Call struct {
	Op     Op
	Caller market.Principal
	Value  uint256.Int
	Args   payload.Object
}

// Result describes a committed call.
type Result struct {
	// CallID correlates the call with its audit record and events.
	CallID string

	// ID is the store or product allocated by create_store / add_product.
	ID uint64

	// Events are the events the call appended, in order.
	Events []event.Event
}
