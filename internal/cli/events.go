package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After int64
	Kind  string
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the event log",
		Long: `Print the event log in sequence order.

Examples:
  bazaar events
  bazaar events --after 120 --kind ProductPurchased
  bazaar events --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with a greater sequence number")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only events of this kind")

	return cmd
}

func runEvents(cmd *cobra.Command, opts *EventsOptions) error {
	if opts.Kind != "" && !event.Kind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q", opts.Kind))
	}

	st, err := openStore(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.ReadEvents(commandContext(cmd), opts.After)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	events := make([]event.Event, 0, len(all))
	for _, e := range all {
		if opts.Kind == "" || string(e.Kind) == opts.Kind {
			events = append(events, e)
		}
	}

	return opts.formatter(cmd).Success(events, func(w io.Writer) {
		for _, e := range events {
			fmt.Fprintln(w, e)
		}
	})
}

// CallsOptions holds flags for the calls command.
type CallsOptions struct {
	*RootOptions
	Limit int
	ID    string
}

// NewCallsCommand creates the calls command.
func NewCallsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Print the call audit trail, rejected calls included",
		Long: `Print the call audit trail.

Every executed call is recorded with its outcome, including calls the market
rejected. With --id, the events that call emitted are printed as well.

Examples:
  bazaar calls --limit 20
  bazaar calls --id 01920000-0000-7000-8000-000000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalls(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "most recent calls to print (0 for all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "print one call and its events")

	return cmd
}

type callDetail struct {
	store.CallRecord
	Events []event.Event `json:"events"`
}

func runCalls(cmd *cobra.Command, opts *CallsOptions) error {
	st, err := openStore(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if opts.ID != "" {
		calls, err := st.ReadCalls(ctx, 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read calls", err)
		}
		for _, c := range calls {
			if c.ID != opts.ID {
				continue
			}
			events, err := st.ReadCallEvents(ctx, c.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read call events", err)
			}
			d := callDetail{CallRecord: c, Events: events}
			return opts.formatter(cmd).Success(d, func(w io.Writer) {
				printCall(w, c)
				for _, e := range events {
					fmt.Fprintf(w, "  %s\n", e)
				}
			})
		}
		return NewExitError(ExitFailure, fmt.Sprintf("call %s not found", opts.ID))
	}

	calls, err := st.ReadCalls(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read calls", err)
	}
	return opts.formatter(cmd).Success(calls, func(w io.Writer) {
		for _, c := range calls {
			printCall(w, c)
		}
	})
}

func printCall(w io.Writer, c store.CallRecord) {
	line := fmt.Sprintf("%d %s %s %s %s", c.Seq, c.ID, c.Caller, c.Op, formatArgs(c.Args))
	if c.Value != "" && c.Value != "0" {
		line += " value=" + c.Value
	}
	fmt.Fprintf(w, "%s -> %s\n", line, c.Outcome)
}
