package httpapi

import (
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
)

// Amounts are rendered as base-10 strings; JSON numbers cannot carry 256
// bits.

type marketView struct {
	Owner          market.Principal   `json:"owner"`
	Open           bool               `json:"open"`
	Administrators []market.Principal `json:"administrators"`
	StoreOwners    []market.Principal `json:"store_owners"`
	NextStoreID    uint64             `json:"next_store_id"`
	Custody        string             `json:"custody"`
}

type storeView struct {
	StoreID uint64           `json:"store_id"`
	Owner   market.Principal `json:"owner"`
	Name    string           `json:"name"`
	Balance string           `json:"balance"`
	Active  bool             `json:"active"`
}

func newStoreView(s market.Store, active bool) storeView {
	return storeView{
		StoreID: s.ID,
		Owner:   s.Owner,
		Name:    s.Name,
		Balance: s.Balance.Dec(),
		Active:  active,
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

func newProductView(p market.Product, active bool) productView {
	return productView{
		StoreID:     p.StoreID,
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Dec(),
		Quantity:    p.Quantity.Dec(),
		Active:      active,
	}
}

type walletView struct {
	Principal market.Principal `json:"principal"`
	Balance   string           `json:"balance"`
}

// callRequest is the body of POST /v1/calls/{op}.
type callRequest struct {
	Args  payload.Object `json:"args"`
	Value string         `json:"value,omitempty"`
}

type callResponse struct {
	CallID string        `json:"call_id"`
	ID     *uint64       `json:"id,omitempty"`
	Events []event.Event `json:"events"`
}

type eventsResponse struct {
	Events []event.Event `json:"events"`
	Next   int64         `json:"next"`
}

type contentResponse struct {
	Handle string `json:"handle"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	CallID  string            `json:"call_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
