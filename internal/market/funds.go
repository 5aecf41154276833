package market

import (
	"github.com/holiman/uint256"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

// PurchaseProduct buys quantity units of a product. value is the native value
// the buyer attached and must equal price * quantity exactly; on success it
// is credited to the store balance. Any non-anonymous principal may buy.
//
// A retired or unknown product has no stock, so any positive quantity fails
// with INSUFFICIENT_QUANTITY; a zero quantity with zero value succeeds and
// changes nothing but the log.
func (l *Ledger) PurchaseProduct(caller Principal, value uint256.Int, storeID, productID uint64, quantity uint256.Int) error {
	if err := l.begin(); err != nil {
		return err
	}
	if caller == NoPrincipal {
		return unauthorized(caller, "an identified buyer")
	}

	// Retired and unknown targets are zero placeholders: no stock, no price.
	st, p := &storeFields{}, &productFields{}
	if s, ok := l.stores.active(storeID); ok {
		st = s
		if prod, ok := s.products.active(productID); ok {
			p = prod
		}
	}

	if p.quantity.Lt(&quantity) {
		return &Error{
			Code:    CodeInsufficientQuantity,
			Message: "not enough stock",
			Details: map[string]string{"requested": quantity.Dec(), "available": p.quantity.Dec()},
		}
	}

	cost, err := safemath.Mul(p.price, quantity)
	if err != nil {
		return arithmetic(err, "price * quantity")
	}
	if !value.Eq(&cost) {
		return &Error{
			Code:    CodePaymentMismatch,
			Message: "attached value must equal price * quantity",
			Details: map[string]string{"expected": cost.Dec(), "attached": value.Dec()},
		}
	}
	remaining, err := safemath.Sub(p.quantity, quantity)
	if err != nil {
		return arithmetic(err, "stock")
	}
	balance, err := safemath.Add(st.balance, cost)
	if err != nil {
		return arithmetic(err, "store balance")
	}

	p.quantity = remaining
	st.balance = balance
	l.log.Append(event.NewProductPurchased(storeID, productID, quantity, cost, string(caller)))
	return nil
}

// WithdrawFunds pays amount from a store the caller owns to the caller.
//
// The balance is reduced before the payout runs. While the payout runs every
// ledger mutation, including another WithdrawFunds, fails with
// REENTRANT_CALL. If the payout fails the balance is restored and no event
// is emitted.
func (l *Ledger) WithdrawFunds(caller Principal, storeID uint64, amount uint256.Int) error {
	if err := l.begin(); err != nil {
		return err
	}
	st, err := l.ownedStore(caller, storeID)
	if err != nil {
		return err
	}
	if st.balance.Lt(&amount) {
		return &Error{
			Code:    CodeInsufficientBalance,
			Message: "store balance is lower than the requested amount",
			Details: map[string]string{"requested": amount.Dec(), "balance": st.balance.Dec()},
		}
	}
	before := st.balance
	after, err := safemath.Sub(before, amount)
	if err != nil {
		return arithmetic(err, "store balance")
	}

	st.balance = after
	if err := l.transfer(caller, amount); err != nil {
		// st still points at the slot: the guard kept the slice from growing.
		st.balance = before
		return &Error{
			Code:    CodeTransferFailed,
			Message: "payout rejected the withdrawal",
			Details: map[string]string{"to": string(caller), "amount": amount.Dec()},
			Cause:   err,
		}
	}
	l.log.Append(event.NewFundsWithdrawn(storeID, amount))
	return nil
}

func (l *Ledger) transfer(to Principal, amount uint256.Int) error {
	if l.payout == nil {
		return &Error{Code: CodeTransferFailed, Message: "no payout configured"}
	}
	l.transferring = true
	defer func() { l.transferring = false }()
	return l.payout.Transfer(to, amount)
}
