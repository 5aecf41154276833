package event

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
)

// Event is one entry of the stream. Seq and ID are assigned by the Log.
type Event struct {
	Seq  int64          `json:"seq"`
	ID   string         `json:"id"`
	Kind Kind           `json:"kind"`
	Args payload.Object `json:"args"`
}

// String renders the event on one line for traces and logs.
func (e Event) String() string {
	args, err := payload.Marshal(e.Args)
	if err != nil {
		args = []byte("{}")
	}
	return fmt.Sprintf("%d %s %s", e.Seq, e.Kind, args)
}

// StoreID returns the store_id argument.
func (e Event) StoreID() uint64 { return uint64(e.Args.Int(ArgStoreID)) }

// ProductID returns the product_id argument.
func (e Event) ProductID() uint64 { return uint64(e.Args.Int(ArgProductID)) }

// Principal returns the principal the event is about: the administrator, the
// store owner, the creating owner or the buyer, depending on kind.
func (e Event) Principal() string {
	switch e.Kind {
	case AdministratorAdded, AdministratorRemoved:
		return e.Args.String(ArgAdministrator)
	case StoreOwnerAdded, StoreOwnerRemoved:
		return e.Args.String(ArgStoreOwner)
	case StoreCreated:
		return e.Args.String(ArgOwner)
	case ProductPurchased:
		return e.Args.String(ArgBuyer)
	}
	return ""
}

// Name returns the name argument.
func (e Event) Name() string { return e.Args.String(ArgName) }

// Description returns the description handle argument.
func (e Event) Description() string { return e.Args.String(ArgDescription) }

// Price returns the price argument.
func (e Event) Price() (uint256.Int, error) { return e.amountArg(ArgPrice) }

// Quantity returns the quantity argument.
func (e Event) Quantity() (uint256.Int, error) { return e.amountArg(ArgQuantity) }

// Amount returns the amount argument.
func (e Event) Amount() (uint256.Int, error) { return e.amountArg(ArgAmount) }

func (e Event) amountArg(key string) (uint256.Int, error) {
	v, err := safemath.ParseDecimal(e.Args.String(key))
	if err != nil {
		return uint256.Int{}, fmt.Errorf("%s %s: %w", e.Kind, key, err)
	}
	return v, nil
}

// Record is an event before the log has stamped it.
type Record struct {
	Kind Kind
	Args payload.Object
}

func dec(v uint256.Int) payload.String {
	return payload.String(v.Dec())
}

func id(n uint64) payload.Int {
	return payload.Int(int64(n))
}

// NewMarketOpened records that the owner opened the market.
func NewMarketOpened() Record { return Record{Kind: MarketOpened, Args: payload.Object{}} }

// NewMarketClosed records that the owner closed the market.
func NewMarketClosed() Record { return Record{Kind: MarketClosed, Args: payload.Object{}} }

// NewAdministratorAdded records p joining the administrators.
func NewAdministratorAdded(p string) Record {
	return Record{Kind: AdministratorAdded, Args: payload.Object{ArgAdministrator: payload.String(p)}}
}

// NewAdministratorRemoved records p leaving the administrators.
func NewAdministratorRemoved(p string) Record {
	return Record{Kind: AdministratorRemoved, Args: payload.Object{ArgAdministrator: payload.String(p)}}
}

// NewStoreOwnerAdded records p joining the store owners.
func NewStoreOwnerAdded(p string) Record {
	return Record{Kind: StoreOwnerAdded, Args: payload.Object{ArgStoreOwner: payload.String(p)}}
}

// NewStoreOwnerRemoved records p leaving the store owners.
func NewStoreOwnerRemoved(p string) Record {
	return Record{Kind: StoreOwnerRemoved, Args: payload.Object{ArgStoreOwner: payload.String(p)}}
}

// NewStoreCreated records the allocation of storeID to owner.
func NewStoreCreated(storeID uint64, owner, name string) Record {
	return Record{Kind: StoreCreated, Args: payload.Object{
		ArgStoreID: id(storeID),
		ArgOwner:   payload.String(owner),
		ArgName:    payload.String(name),
	}}
}

// NewStoreRemoved records the retirement of a store slot.
func NewStoreRemoved(storeID uint64) Record {
	return Record{Kind: StoreRemoved, Args: payload.Object{ArgStoreID: id(storeID)}}
}

// NewStoreNameChanged records a store rename.
func NewStoreNameChanged(storeID uint64, name string) Record {
	return Record{Kind: StoreNameChanged, Args: payload.Object{
		ArgStoreID: id(storeID),
		ArgName:    payload.String(name),
	}}
}

// NewProductAdded records a product listed with its full initial fields.
func NewProductAdded(storeID, productID uint64, name, description string, price, quantity uint256.Int) Record {
	return Record{Kind: ProductAdded, Args: payload.Object{
		ArgStoreID:     id(storeID),
		ArgProductID:   id(productID),
		ArgName:        payload.String(name),
		ArgDescription: payload.String(description),
		ArgPrice:       dec(price),
		ArgQuantity:    dec(quantity),
	}}
}

// NewProductRemoved records the retirement of a product slot.
func NewProductRemoved(storeID, productID uint64) Record {
	return Record{Kind: ProductRemoved, Args: payload.Object{
		ArgStoreID:   id(storeID),
		ArgProductID: id(productID),
	}}
}

// NewProductNameChanged records a product rename.
func NewProductNameChanged(storeID, productID uint64, name string) Record {
	return Record{Kind: ProductNameChanged, Args: payload.Object{
		ArgStoreID:   id(storeID),
		ArgProductID: id(productID),
		ArgName:      payload.String(name),
	}}
}

// NewProductDescriptionChanged records a new description handle.
func NewProductDescriptionChanged(storeID, productID uint64, description string) Record {
	return Record{Kind: ProductDescriptionChanged, Args: payload.Object{
		ArgStoreID:     id(storeID),
		ArgProductID:   id(productID),
		ArgDescription: payload.String(description),
	}}
}

// NewProductPriceChanged records a new unit price.
func NewProductPriceChanged(storeID, productID uint64, price uint256.Int) Record {
	return Record{Kind: ProductPriceChanged, Args: payload.Object{
		ArgStoreID:   id(storeID),
		ArgProductID: id(productID),
		ArgPrice:     dec(price),
	}}
}

// NewProductQuantityChanged records a stock level set by the store owner.
func NewProductQuantityChanged(storeID, productID uint64, quantity uint256.Int) Record {
	return Record{Kind: ProductQuantityChanged, Args: payload.Object{
		ArgStoreID:   id(storeID),
		ArgProductID: id(productID),
		ArgQuantity:  dec(quantity),
	}}
}

// NewFundsWithdrawn records amount paid from a store balance to its owner.
func NewFundsWithdrawn(storeID uint64, amount uint256.Int) Record {
	return Record{Kind: FundsWithdrawn, Args: payload.Object{
		ArgStoreID: id(storeID),
		ArgAmount:  dec(amount),
	}}
}

// NewProductPurchased records a sale; amount is price times quantity.
func NewProductPurchased(storeID, productID uint64, quantity, amount uint256.Int, buyer string) Record {
	return Record{Kind: ProductPurchased, Args: payload.Object{
		ArgStoreID:   id(storeID),
		ArgProductID: id(productID),
		ArgQuantity:  dec(quantity),
		ArgAmount:    dec(amount),
		ArgBuyer:     payload.String(buyer),
	}}
}
