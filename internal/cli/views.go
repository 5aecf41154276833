package cli

import (
	"strings"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/wallet"
)

// Amounts are base-10 strings in JSON output; 256-bit values do not fit
// JSON numbers.

type marketView struct {
	Owner          string   `json:"owner"`
	Open           bool     `json:"open"`
	Administrators []string `json:"administrators"`
	StoreOwners    []string `json:"store_owners"`
	NextStoreID    uint64   `json:"next_store_id"`
	Stores         int      `json:"stores"`
	Custody        string   `json:"custody"`
}

func newMarketView(m *market.Market, w *wallet.Book) marketView {
	custody := w.Balance(wallet.Custody)
	return marketView{
		Owner:          string(m.Owner()),
		Open:           m.IsOpen(),
		Administrators: principalStrings(m.Administrators()),
		StoreOwners:    principalStrings(m.StoreOwners()),
		NextStoreID:    m.NextStoreID(),
		Stores:         len(m.ActiveStores()),
		Custody:        custody.Dec(),
	}
}

type storeView struct {
	StoreID       uint64 `json:"store_id"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	Balance       string `json:"balance"`
	Active        bool   `json:"active"`
	Products      int    `json:"products"`
	NextProductID uint64 `json:"next_product_id"`
}

func newStoreView(m *market.Market, storeID uint64) storeView {
	s := m.Store(storeID)
	return storeView{
		StoreID:       storeID,
		Owner:         string(s.Owner),
		Name:          s.Name,
		Balance:       s.Balance.Dec(),
		Active:        m.StoreActive(storeID),
		Products:      len(m.ActiveProducts(storeID)),
		NextProductID: m.NextProductID(storeID),
	}
}

type productView struct {
	StoreID     uint64 `json:"store_id"`
	ProductID   uint64 `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    string `json:"quantity"`
	Active      bool   `json:"active"`
}

func newProductView(m *market.Market, storeID, productID uint64) productView {
	p := m.Product(storeID, productID)
	return productView{
		StoreID:     storeID,
		ProductID:   productID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Dec(),
		Quantity:    p.Quantity.Dec(),
		Active:      m.ProductActive(storeID, productID),
	}
}

type walletView struct {
	Principal string `json:"principal"`
	Balance   string `json:"balance"`
}

func principalStrings(ps []market.Principal) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

func joinOrDash(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	return strings.Join(ss, ", ")
}
