package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/wallet"
)

// view opens the market read-only and runs fn under the engine's read lock.
func view(cmd *cobra.Command, opts *RootOptions, fn func(m *market.Market, w *wallet.Book)) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	s.engine.View(fn)
	return nil
}

func newMarketStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show owner, roles, open flag and custody",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var v marketView
			if err := view(cmd, opts, func(m *market.Market, w *wallet.Book) {
				v = newMarketView(m, w)
			}); err != nil {
				return err
			}
			return opts.formatter(cmd).Success(v, func(w io.Writer) {
				state := "closed"
				if v.Open {
					state = "open"
				}
				fmt.Fprintf(w, "market %s\n", state)
				fmt.Fprintf(w, "  owner:          %s\n", v.Owner)
				fmt.Fprintf(w, "  administrators: %s\n", joinOrDash(v.Administrators))
				fmt.Fprintf(w, "  store owners:   %s\n", joinOrDash(v.StoreOwners))
				fmt.Fprintf(w, "  stores:         %d (next id %d)\n", v.Stores, v.NextStoreID)
				fmt.Fprintf(w, "  custody:        %s\n", v.Custody)
			})
		},
	}
}

func printStore(w io.Writer, v storeView) {
	if !v.Active {
		fmt.Fprintf(w, "store %d: retired\n", v.StoreID)
		return
	}
	fmt.Fprintf(w, "store %d %q owner=%s balance=%s products=%d\n",
		v.StoreID, v.Name, v.Owner, v.Balance, v.Products)
}

func printProduct(w io.Writer, v productView) {
	if !v.Active {
		fmt.Fprintf(w, "product %d/%d: retired\n", v.StoreID, v.ProductID)
		return
	}
	fmt.Fprintf(w, "product %d/%d %q price=%s quantity=%s\n",
		v.StoreID, v.ProductID, v.Name, v.Price, v.Quantity)
	if v.Description != "" {
		fmt.Fprintf(w, "  %s\n", v.Description)
	}
}
