package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/wallet"
)

// ProductAddOptions holds flags for product add.
type ProductAddOptions struct {
	*RootOptions
	Description     string
	DescriptionFile string
	Price           string
	Quantity        string
}

// NewProductCommand creates the product command group.
func NewProductCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "List, change, remove and inspect products",
	}

	cmd.AddCommand(newProductAddCommand(rootOpts))
	cmd.AddCommand(productFieldCommand(rootOpts, "rename", "name", "Rename a product", engine.OpChangeProductName, event.ArgName, false))
	cmd.AddCommand(productFieldCommand(rootOpts, "describe", "description", "Replace a product description", engine.OpChangeProductDescription, event.ArgDescription, false))
	cmd.AddCommand(productFieldCommand(rootOpts, "price", "price", "Change a product price", engine.OpChangeProductPrice, event.ArgPrice, true))
	cmd.AddCommand(productFieldCommand(rootOpts, "quantity", "quantity", "Set a product's stock", engine.OpChangeProductQuantity, event.ArgQuantity, true))

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <store_id> <product_id>",
		Short: "Retire a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseProductRef(args)
			if err != nil {
				return err
			}
			return execute(cmd, rootOpts, engine.OpRemoveProduct, payload.Object{
				event.ArgStoreID:   sid,
				event.ArgProductID: pid,
			}, uint256.Int{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <store_id> <product_id>",
		Short: "Show one product; retired and unknown IDs read as zero fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseProductRef(args)
			if err != nil {
				return err
			}
			var v productView
			if err := view(cmd, rootOpts, func(m *market.Market, _ *wallet.Book) {
				v = newProductView(m, uint64(sid), uint64(pid))
			}); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(v, func(w io.Writer) { printProduct(w, v) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <store_id>",
		Short: "List a store's active products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseID("store_id", args[0])
			if err != nil {
				return err
			}
			views := []productView{}
			if err := view(cmd, rootOpts, func(m *market.Market, _ *wallet.Book) {
				for _, p := range m.ActiveProducts(uint64(sid)) {
					views = append(views, newProductView(m, p.StoreID, p.ID))
				}
			}); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(views, func(w io.Writer) {
				for _, v := range views {
					printProduct(w, v)
				}
			})
		},
	})

	return cmd
}

func newProductAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProductAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <store_id> <name>",
		Short: "List a new product in a store the caller owns",
		Long: `List a new product in a store the caller owns.

--description-file stores the file in the content store and uses its
handle as the description.

Example:
  bazaar product add 0 Widget --price 5 --quantity 3 --as bob`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductAdd(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "product description")
	cmd.Flags().StringVar(&opts.DescriptionFile, "description-file", "", "store this file as the description content")
	cmd.Flags().StringVar(&opts.Price, "price", "0", "unit price")
	cmd.Flags().StringVar(&opts.Quantity, "quantity", "0", "initial stock")
	cmd.MarkFlagsMutuallyExclusive("description", "description-file")

	return cmd
}

func runProductAdd(cmd *cobra.Command, opts *ProductAddOptions, args []string) error {
	sid, err := parseID("store_id", args[0])
	if err != nil {
		return err
	}
	price, err := amountArg("price", opts.Price)
	if err != nil {
		return err
	}
	qty, err := amountArg("quantity", opts.Quantity)
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

	description := opts.Description
	if opts.DescriptionFile != "" {
		data, err := os.ReadFile(opts.DescriptionFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read description file", err)
		}
		handle, err := content.NewPersistent(s.store).Put(commandContext(cmd), data)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to store description", err)
		}
		opts.formatter(cmd).VerboseLog("description stored as %s", handle)
		description = handle
	}

	return s.call(cmd, opts.RootOptions, engine.Call{
		Op:     engine.OpAddProduct,
		Caller: caller,
		Args: payload.Object{
			event.ArgStoreID:     sid,
			event.ArgName:        payload.String(args[1]),
			event.ArgDescription: payload.String(description),
			event.ArgPrice:       price,
			event.ArgQuantity:    qty,
		},
	})
}

// productFieldCommand builds "<use> <store_id> <product_id> <value>".
func productFieldCommand(opts *RootOptions, use, field, short string, op engine.Op, arg string, amount bool) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <store_id> <product_id> <%s>", use, field),
		Short: short + " in a store the caller owns",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, pid, err := parseProductRef(args)
			if err != nil {
				return err
			}
			var v payload.Value = payload.String(args[2])
			if amount {
				if v, err = amountArg(field, args[2]); err != nil {
					return err
				}
			}
			return execute(cmd, opts, op, payload.Object{
				event.ArgStoreID:   sid,
				event.ArgProductID: pid,
				arg:                v,
			}, uint256.Int{})
		},
	}
}

func parseProductRef(args []string) (payload.Int, payload.Int, error) {
	sid, err := parseID("store_id", args[0])
	if err != nil {
		return 0, 0, err
	}
	pid, err := parseID("product_id", args[1])
	if err != nil {
		return 0, 0, err
	}
	return sid, pid, nil
}
