// Package market implements the marketplace ledger: the role hierarchy, the
// store and product registry, and custody of the value paid for purchases.
//
// A Market bundles three parts that share one event log:
//
//   - Registry: the fixed owner, the administrator and store-owner sets, and
//     the open/closed flag.
//   - Ledger: stores, products and per-store balances, plus every mutating
//     operation on them.
//   - event.Log: one appended event per successful mutation.
//
// Every operation takes the calling Principal explicitly and re-reads the
// current registry state; nothing is cached between calls. A failed operation
// returns a *Error and leaves state and log untouched.
//
// The package holds no locks. Its host applies calls one at a time (see
// internal/engine). The one suspension point is the value transfer inside
// WithdrawFunds, which runs after the balance has been reduced and under an
// in-progress guard that rejects any re-entrant ledger mutation.
//
// Identifiers are never reused. Removing a store or a product retires its
// slot; a retired or never-allocated slot reads back as zero fields.
package market
