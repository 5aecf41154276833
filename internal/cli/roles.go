package cli

import (
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/payload"
)

// NewAdminCommand creates the admin command group. Only the market owner
// may grant or revoke the administrator role.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant or revoke the administrator role",
	}
	cmd.AddCommand(roleCommand(rootOpts, "add", "Appoint an administrator (owner only)", engine.OpAddAdministrator))
	cmd.AddCommand(roleCommand(rootOpts, "remove", "Remove an administrator (owner only)", engine.OpRemoveAdministrator))
	return cmd
}

// NewStoreOwnerCommand creates the storeowner command group. Administrators
// grant and revoke the store-owner role.
func NewStoreOwnerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storeowner",
		Short: "Grant or revoke the store-owner role",
	}
	cmd.AddCommand(roleCommand(rootOpts, "add", "Appoint a store owner (administrators only)", engine.OpAddStoreOwner))
	cmd.AddCommand(roleCommand(rootOpts, "remove", "Remove a store owner (administrators only)", engine.OpRemoveStoreOwner))
	return cmd
}

func roleCommand(opts *RootOptions, use, short string, op engine.Op) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <principal>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, op, payload.Object{
				engine.ArgPrincipal: payload.String(args[0]),
			}, uint256.Int{})
		},
	}
}

// NewMarketCommand creates the market command group.
func NewMarketCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Open, close or inspect the market",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Resume trading (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, rootOpts, engine.OpOpenMarket, payload.Object{}, uint256.Int{})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Halt store and product changes, purchases and withdrawals (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, rootOpts, engine.OpCloseMarket, payload.Object{}, uint256.Int{})
		},
	})
	cmd.AddCommand(newMarketStatusCommand(rootOpts))
	return cmd
}
