package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/genesis"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Genesis string
	Owner   string
}

// initOutput summarizes a freshly initialized market.
type initOutput struct {
	DB             string   `json:"db"`
	Owner          string   `json:"owner"`
	Administrators []string `json:"administrators"`
	StoreOwners    []string `json:"store_owners"`
	Accounts       int      `json:"accounts"`
	Events         int      `json:"events"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new market database",
		Long: `Create a new market database.

With --genesis, the market is built from a CUE or JSON genesis file that
names the owner, the initial administrators and store owners, and the
opening wallet balances. Role grants run as ordinary calls, so they appear
in the event log.

With --owner only, an empty market is created.

Examples:
  bazaar init --db ./market.db --genesis ./market.cue
  bazaar init --db ./market.db --owner alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Genesis, "genesis", "", "genesis file (.cue or .json)")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "market owner, when no genesis file is given")
	cmd.MarkFlagsMutuallyExclusive("genesis", "owner")
	cmd.MarkFlagsOneRequired("genesis", "owner")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	ctx := commandContext(cmd)
	logger := opts.logger(cmd.ErrOrStderr(), slog.LevelWarn)

	g := &genesis.Genesis{Owner: opts.Owner}
	if opts.Genesis != "" {
		loaded, err := genesis.Load(opts.Genesis)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid genesis file", err)
		}
		g = loaded
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	e, err := genesis.Apply(ctx, st, g, engine.WithLogger(logger))
	if errors.Is(err, engine.ErrAlreadyInitialized) {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: market already initialized", opts.DB))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize market", err)
	}

	out := initOutput{DB: opts.DB, Owner: g.Owner, Events: len(e.Events(0))}
	e.View(func(m *market.Market, _ *wallet.Book) {
		out.Administrators = principalStrings(m.Administrators())
		out.StoreOwners = principalStrings(m.StoreOwners())
	})
	out.Accounts = len(g.Accounts)

	return opts.formatter(cmd).Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "Initialized market in %s\n", out.DB)
		fmt.Fprintf(w, "  owner:          %s\n", out.Owner)
		fmt.Fprintf(w, "  administrators: %s\n", joinOrDash(out.Administrators))
		fmt.Fprintf(w, "  store owners:   %s\n", joinOrDash(out.StoreOwners))
		fmt.Fprintf(w, "  accounts:       %d\n", out.Accounts)
		fmt.Fprintf(w, "  events:         %d\n", out.Events)
	})
}
