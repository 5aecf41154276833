package market

import (
	"sort"

	"github.com/roach88/bazaar/internal/event"
)

// Registry holds the role hierarchy and the open/closed flag.
//
// The owner is fixed at construction. Administrators are managed by the
// owner, store owners by administrators. Membership changes succeed even when
// they do not change the set, and still emit their event.
type Registry struct {
	owner          Principal
	administrators map[Principal]struct{}
	storeOwners    map[Principal]struct{}
	open           bool
	log            *event.Log
}

func newRegistry(owner Principal, log *event.Log) *Registry {
	return &Registry{
		owner:          owner,
		administrators: make(map[Principal]struct{}),
		storeOwners:    make(map[Principal]struct{}),
		open:           true,
		log:            log,
	}
}

// Owner returns the market owner.
func (r *Registry) Owner() Principal { return r.owner }

// IsOwner reports whether p is the market owner.
func (r *Registry) IsOwner(p Principal) bool {
	return p != NoPrincipal && p == r.owner
}

// IsAdministrator reports whether p is currently an administrator.
func (r *Registry) IsAdministrator(p Principal) bool {
	_, ok := r.administrators[p]
	return ok && p != NoPrincipal
}

// IsStoreOwner reports whether p is currently a store owner.
func (r *Registry) IsStoreOwner(p Principal) bool {
	_, ok := r.storeOwners[p]
	return ok && p != NoPrincipal
}

// IsOpen reports whether trading operations are accepted.
func (r *Registry) IsOpen() bool { return r.open }

// Closed is the inverse of IsOpen.
func (r *Registry) Closed() bool { return !r.open }

// Administrators returns the current administrators in sorted order.
func (r *Registry) Administrators() []Principal {
	return sortedMembers(r.administrators)
}

// StoreOwners returns the current store owners in sorted order.
func (r *Registry) StoreOwners() []Principal {
	return sortedMembers(r.storeOwners)
}

// AddAdministrator grants the administrator role. Owner only.
func (r *Registry) AddAdministrator(caller, p Principal) error {
	if !r.IsOwner(caller) {
		return unauthorized(caller, "the market owner")
	}
	r.administrators[p] = struct{}{}
	r.log.Append(event.NewAdministratorAdded(string(p)))
	return nil
}

// RemoveAdministrator revokes the administrator role. Owner only.
func (r *Registry) RemoveAdministrator(caller, p Principal) error {
	if !r.IsOwner(caller) {
		return unauthorized(caller, "the market owner")
	}
	delete(r.administrators, p)
	r.log.Append(event.NewAdministratorRemoved(string(p)))
	return nil
}

// AddStoreOwner grants the store-owner role. Administrators only.
func (r *Registry) AddStoreOwner(caller, p Principal) error {
	if !r.IsAdministrator(caller) {
		return unauthorized(caller, "an administrator")
	}
	r.storeOwners[p] = struct{}{}
	r.log.Append(event.NewStoreOwnerAdded(string(p)))
	return nil
}

// RemoveStoreOwner revokes the store-owner role. Administrators only.
// Stores the principal already created stay in place, but every ownership
// check also requires the role, so they become unmanageable until the role
// is granted again.
func (r *Registry) RemoveStoreOwner(caller, p Principal) error {
	if !r.IsAdministrator(caller) {
		return unauthorized(caller, "an administrator")
	}
	delete(r.storeOwners, p)
	r.log.Append(event.NewStoreOwnerRemoved(string(p)))
	return nil
}

// OpenMarket sets the market open. Owner only; allowed in either state.
func (r *Registry) OpenMarket(caller Principal) error {
	if !r.IsOwner(caller) {
		return unauthorized(caller, "the market owner")
	}
	r.open = true
	r.log.Append(event.NewMarketOpened())
	return nil
}

// CloseMarket sets the market closed. Owner only; allowed in either state.
func (r *Registry) CloseMarket(caller Principal) error {
	if !r.IsOwner(caller) {
		return unauthorized(caller, "the market owner")
	}
	r.open = false
	r.log.Append(event.NewMarketClosed())
	return nil
}

func sortedMembers(set map[Principal]struct{}) []Principal {
	out := make([]Principal, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
