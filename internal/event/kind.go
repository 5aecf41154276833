package event

// Kind names an event type. The string values are part of the stored format.
type Kind string

const (
	MarketOpened              Kind = "MarketOpened"
	MarketClosed              Kind = "MarketClosed"
	AdministratorAdded        Kind = "AdministratorAdded"
	AdministratorRemoved      Kind = "AdministratorRemoved"
	StoreOwnerAdded           Kind = "StoreOwnerAdded"
	StoreOwnerRemoved         Kind = "StoreOwnerRemoved"
	StoreCreated              Kind = "StoreCreated"
	StoreRemoved              Kind = "StoreRemoved"
	StoreNameChanged          Kind = "StoreNameChanged"
	ProductAdded              Kind = "ProductAdded"
	ProductRemoved            Kind = "ProductRemoved"
	ProductNameChanged        Kind = "ProductNameChanged"
	ProductDescriptionChanged Kind = "ProductDescriptionChanged"
	ProductPriceChanged       Kind = "ProductPriceChanged"
	ProductQuantityChanged    Kind = "ProductQuantityChanged"
	FundsWithdrawn            Kind = "FundsWithdrawn"
	ProductPurchased          Kind = "ProductPurchased"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	MarketOpened,
	MarketClosed,
	AdministratorAdded,
	AdministratorRemoved,
	StoreOwnerAdded,
	StoreOwnerRemoved,
	StoreCreated,
	StoreRemoved,
	StoreNameChanged,
	ProductAdded,
	ProductRemoved,
	ProductNameChanged,
	ProductDescriptionChanged,
	ProductPriceChanged,
	ProductQuantityChanged,
	FundsWithdrawn,
	ProductPurchased,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Argument names used in event payloads.
const (
	ArgAdministrator = "administrator"
	ArgStoreOwner    = "store_owner"
	ArgStoreID       = "store_id"
	ArgProductID     = "product_id"
	ArgOwner         = "owner"
	ArgName          = "name"
	ArgDescription   = "description"
	ArgPrice         = "price"
	ArgQuantity      = "quantity"
	ArgAmount        = "amount"
	ArgBuyer         = "buyer"
)
