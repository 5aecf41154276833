package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
)

type verifyOutput struct {
	engine.Report
	Custody  string `json:"custody"`
	Balances string `json:"balances"`
	Stranded string `json:"stranded"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay the event log and check it against stored state",
		Long: `Replay the stored event log through a fresh ledger and through a client
mirror, compare the two, and check that custody covers every store balance.

Custody left over from removed stores is reported as stranded; it is not a
failure.

Exit codes:
  0 - Log replays and every check holds
  1 - One or more problems found
  2 - Command error (database missing, log does not replay)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, rootOpts)
		},
	}
}

func runVerify(cmd *cobra.Command, opts *RootOptions) error {
	st, err := openStore(cmd, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := engine.Verify(commandContext(cmd), st)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	stranded := report.Stranded()
	out := verifyOutput{
		Report:   report,
		Custody:  report.Custody.Dec(),
		Balances: report.Balances.Dec(),
		Stranded: stranded.Dec(),
	}
	if err := opts.formatter(cmd).Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "events:   %d\n", out.Events)
		fmt.Fprintf(w, "stores:   %d (%d products)\n", out.Stores, out.Products)
		fmt.Fprintf(w, "custody:  %s\n", out.Custody)
		fmt.Fprintf(w, "balances: %s\n", out.Balances)
		if !stranded.IsZero() {
			fmt.Fprintf(w, "stranded: %s\n", out.Stranded)
		}
		for _, p := range out.Problems {
			fmt.Fprintf(w, "✗ %s\n", p)
		}
		if report.OK() {
			fmt.Fprintln(w, "✓ log verified")
		}
	}); err != nil {
		return err
	}

	if !report.OK() {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d problem(s) found", len(report.Problems)), Reported: true}
	}
	return nil
}
