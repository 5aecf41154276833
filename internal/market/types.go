package market

import "github.com/holiman/uint256"

// Principal is an opaque caller identity. The empty Principal is the zero
// identity: it never holds a role and owns only retired slots.
type Principal string

// NoPrincipal is the zero identity.
const NoPrincipal Principal = ""

// Store is the read view of a store. A retired or unknown ID yields a Store
// with zero Owner, Name and Balance.
type Store struct {
	ID      uint64      `json:"store_id"`
	Owner   Principal   `json:"owner"`
	Name    string      `json:"name"`
	Balance uint256.Int `json:"-"`
}

// Product is the read view of a product. A retired or unknown ID yields zero
// fields.
type Product struct {
	StoreID     uint64      `json:"store_id"`
	ID          uint64      `json:"product_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       uint256.Int `json:"-"`
	Quantity    uint256.Int `json:"-"`
}

type storeFields struct {
	owner    Principal
	name     string
	balance  uint256.Int
	products slots[productFields]
}

type productFields struct {
	name        string
	description string
	price       uint256.Int
	quantity    uint256.Int
}

// Payout moves custodied native value out of the market. WithdrawFunds calls
// Transfer after the store balance has already been reduced; a non-nil error
// makes the withdrawal fail and the balance is restored.
type Payout interface {
	Transfer(to Principal, amount uint256.Int) error
}

// PayoutFunc adapts a function to Payout.
type PayoutFunc func(to Principal, amount uint256.Int) error

// Transfer calls f(to, amount).
func (f PayoutFunc) Transfer(to Principal, amount uint256.Int) error {
	return f(to, amount)
}
