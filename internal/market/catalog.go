package market

import (
	"strconv"

	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/event"
)

// CreateStore allocates a new store owned by the caller and returns its ID.
func (l *Ledger) CreateStore(caller Principal, name string) (uint64, error) {
	if err := l.begin(); err != nil {
		return 0, err
	}
	if !l.access.IsStoreOwner(caller) {
		return 0, unauthorized(caller, "a store owner")
	}
	id := l.stores.allocate(storeFields{owner: caller, name: name})
	l.log.Append(event.NewStoreCreated(id, string(caller), name))
	return id, nil
}

// ChangeStoreName renames a store the caller owns.
func (l *Ledger) ChangeStoreName(caller Principal, storeID uint64, name string) error {
	if err := l.begin(); err != nil {
		return err
	}
	st, err := l.ownedStore(caller, storeID)
	if err != nil {
		return err
	}
	st.name = name
	l.log.Append(event.NewStoreNameChanged(storeID, name))
	return nil
}

// RemoveStore retires a store the caller owns. Any balance still held by the
// store is not paid out; it stays in custody with no store to claim it.
func (l *Ledger) RemoveStore(caller Principal, storeID uint64) error {
	if err := l.begin(); err != nil {
		return err
	}
	if _, err := l.ownedStore(caller, storeID); err != nil {
		return err
	}
	l.stores.retire(storeID)
	l.log.Append(event.NewStoreRemoved(storeID))
	return nil
}

// AddProduct allocates a product in a store the caller owns and returns its ID.
func (l *Ledger) AddProduct(caller Principal, storeID uint64, name, description string, price, quantity uint256.Int) (uint64, error) {
	if err := l.begin(); err != nil {
		return 0, err
	}
	st, err := l.ownedStore(caller, storeID)
	if err != nil {
		return 0, err
	}
	id := st.products.allocate(productFields{
		name:        name,
		description: description,
		price:       price,
		quantity:    quantity,
	})
	l.log.Append(event.NewProductAdded(storeID, id, name, description, price, quantity))
	return id, nil
}

// RemoveProduct retires a product.
func (l *Ledger) RemoveProduct(caller Principal, storeID, productID uint64) error {
	if err := l.begin(); err != nil {
		return err
	}
	st, err := l.ownedStore(caller, storeID)
	if err != nil {
		return err
	}
	if !st.products.retire(productID) {
		_, err := l.ownedProduct(caller, storeID, productID)
		return err
	}
	l.log.Append(event.NewProductRemoved(storeID, productID))
	return nil
}

// ChangeProductName sets a product's name.
func (l *Ledger) ChangeProductName(caller Principal, storeID, productID uint64, name string) error {
	if err := l.begin(); err != nil {
		return err
	}
	p, err := l.ownedProduct(caller, storeID, productID)
	if err != nil {
		return err
	}
	p.name = name
	l.log.Append(event.NewProductNameChanged(storeID, productID, name))
	return nil
}

// ChangeProductDescription sets a product's description.
func (l *Ledger) ChangeProductDescription(caller Principal, storeID, productID uint64, description string) error {
	if err := l.begin(); err != nil {
		return err
	}
	p, err := l.ownedProduct(caller, storeID, productID)
	if err != nil {
		return err
	}
	p.description = description
	l.log.Append(event.NewProductDescriptionChanged(storeID, productID, description))
	return nil
}

// ChangeProductPrice sets a product's unit price.
func (l *Ledger) ChangeProductPrice(caller Principal, storeID, productID uint64, price uint256.Int) error {
	if err := l.begin(); err != nil {
		return err
	}
	p, err := l.ownedProduct(caller, storeID, productID)
	if err != nil {
		return err
	}
	p.price = price
	l.log.Append(event.NewProductPriceChanged(storeID, productID, price))
	return nil
}

// ChangeProductQuantity sets a product's stock.
func (l *Ledger) ChangeProductQuantity(caller Principal, storeID, productID uint64, quantity uint256.Int) error {
	if err := l.begin(); err != nil {
		return err
	}
	p, err := l.ownedProduct(caller, storeID, productID)
	if err != nil {
		return err
	}
	p.quantity = quantity
	l.log.Append(event.NewProductQuantityChanged(storeID, productID, quantity))
	return nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
