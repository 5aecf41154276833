package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string
	As      string

	// Config holds the environment defaults, loaded before any command runs.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the bazaar CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bazaar",
		Short: "bazaar - custodial multi-store marketplace ledger",
		Long: `A marketplace ledger: an owner appoints administrators, administrators
appoint store owners, store owners run stores and list products, and anyone
with a wallet buys. Every change is an event in an append-only log.

Defaults come from BAZAAR_DB and BAZAAR_PRINCIPAL; --db and --as override
them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			opts.Config = cfg
			if !cmd.Flags().Changed("db") {
				opts.DB = cfg.DB
			}
			if !cmd.Flags().Changed("as") {
				opts.As = cfg.Principal
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (default $BAZAAR_DB or bazaar.db)")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "calling principal (default $BAZAAR_PRINCIPAL)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAdminCommand(opts))
	cmd.AddCommand(NewStoreOwnerCommand(opts))
	cmd.AddCommand(NewMarketCommand(opts))
	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewPurchaseCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewWalletCommand(opts))
	cmd.AddCommand(NewContentCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewCallsCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on w. One-shot commands only surface
// warnings unless --verbose is set.
func (o *RootOptions) logger(w io.Writer, level slog.Level) *slog.Logger {
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
