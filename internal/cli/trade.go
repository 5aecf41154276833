package cli

import (
	"fmt"
	"io"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/wallet"
)

// PurchaseOptions holds flags for the purchase command.
type PurchaseOptions struct {
	*RootOptions
	Value string
}

// NewPurchaseCommand creates the purchase command.
func NewPurchaseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurchaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purchase <store_id> <product_id> <quantity>",
		Short: "Buy units of a product with value from the caller's wallet",
		Long: `Buy units of a product. The attached value must equal price * quantity
exactly; it moves from the caller's wallet into market custody and is
credited to the store.

Without --value the current price * quantity is attached.

Examples:
  bazaar purchase 0 0 2 --as carol
  bazaar purchase 0 0 2 --value 10 --as carol`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurchase(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "value", "", "attached value (default price * quantity)")

	return cmd
}

func runPurchase(cmd *cobra.Command, opts *PurchaseOptions, args []string) error {
	sid, pid, err := parseProductRef(args)
	if err != nil {
		return err
	}
	qty, err := parseAmount("quantity", args[2])
	if err != nil {
		return err
	}
	caller, err := opts.caller()
	if err != nil {
		return err
	}

	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	var value uint256.Int
	if opts.Value != "" {
		if value, err = parseAmount("value", opts.Value); err != nil {
			return err
		}
	} else {
		var price uint256.Int
		s.engine.View(func(m *market.Market, _ *wallet.Book) {
			price = m.Product(uint64(sid), uint64(pid)).Price
		})
		if value, err = safemath.Mul(price, qty); err != nil {
			return WrapExitError(ExitCommandError, "price * quantity", err)
		}
		opts.formatter(cmd).VerboseLog("attaching %s", value.Dec())
	}

	return s.call(cmd, opts.RootOptions, engine.Call{
		Op:     engine.OpPurchaseProduct,
		Caller: caller,
		Value:  value,
		Args: payload.Object{
			event.ArgStoreID:   sid,
			event.ArgProductID: pid,
			event.ArgQuantity:  payload.String(qty.Dec()),
		},
	})
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <store_id> <amount>",
		Short: "Pay part of a store balance to its owner's wallet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseID("store_id", args[0])
			if err != nil {
				return err
			}
			amount, err := amountArg("amount", args[1])
			if err != nil {
				return err
			}
			return execute(cmd, rootOpts, engine.OpWithdrawFunds, payload.Object{
				event.ArgStoreID: sid,
				event.ArgAmount:  amount,
			}, uint256.Int{})
		},
	}
}

// NewWalletCommand creates the wallet command group.
func NewWalletCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect wallet balances",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [principal]",
		Short: "Show a wallet balance (default the caller's)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := rootOpts.As
			if len(args) == 1 {
				principal = args[0]
			}
			if principal == "" {
				return NewExitError(ExitCommandError, "no principal: pass one or set --as")
			}

			v := walletView{Principal: principal}
			if err := view(cmd, rootOpts, func(_ *market.Market, w *wallet.Book) {
				bal := w.Balance(market.Principal(principal))
				v.Balance = bal.Dec()
			}); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(v, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s\n", v.Principal, v.Balance)
			})
		},
	})

	return cmd
}
