package cli

import (
	"io"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/wallet"
)

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Create, change, remove and list stores",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a store owned by the caller (store owners only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, rootOpts, engine.OpCreateStore, payload.Object{
				event.ArgName: payload.String(args[0]),
			}, uint256.Int{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <store_id> <name>",
		Short: "Rename a store the caller owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseID("store_id", args[0])
			if err != nil {
				return err
			}
			return execute(cmd, rootOpts, engine.OpChangeStoreName, payload.Object{
				event.ArgStoreID: sid,
				event.ArgName:    payload.String(args[1]),
			}, uint256.Int{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <store_id>",
		Short: "Retire a store the caller owns",
		Long: `Retire a store the caller owns. Its products are retired with it.

An unwithdrawn balance stays in custody; verify reports it as stranded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseID("store_id", args[0])
			if err != nil {
				return err
			}
			return execute(cmd, rootOpts, engine.OpRemoveStore, payload.Object{
				event.ArgStoreID: sid,
			}, uint256.Int{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <store_id>",
		Short: "Show one store; retired and unknown IDs read as zero fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := parseID("store_id", args[0])
			if err != nil {
				return err
			}
			var v storeView
			if err := view(cmd, rootOpts, func(m *market.Market, _ *wallet.Book) {
				v = newStoreView(m, uint64(sid))
			}); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(v, func(w io.Writer) { printStore(w, v) })
		},
	})

	var owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List active stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			views := []storeView{}
			if err := view(cmd, rootOpts, func(m *market.Market, _ *wallet.Book) {
				for _, s := range m.ActiveStores() {
					if owner != "" && string(s.Owner) != owner {
						continue
					}
					views = append(views, newStoreView(m, s.ID))
				}
			}); err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Success(views, func(w io.Writer) {
				for _, v := range views {
					printStore(w, v)
				}
			})
		},
	}
	list.Flags().StringVar(&owner, "owner", "", "only stores owned by this principal")
	cmd.AddCommand(list)

	return cmd
}
