package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/content"
)

type contentOutput struct {
	Handle string `json:"handle"`
	Size   int    `json:"size"`
}

// NewContentCommand creates the content command group.
func NewContentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Store and fetch content-addressed product descriptions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "put <file|->",
		Short: "Store a file and print its handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read input", err)
			}
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			handle, err := content.NewPersistent(s.store).Put(commandContext(cmd), data)
			if errors.Is(err, content.ErrTooLarge) {
				return WrapExitError(ExitFailure, "content rejected", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to store content", err)
			}
			out := contentOutput{Handle: handle, Size: len(data)}
			return rootOpts.formatter(cmd).Success(out, func(w io.Writer) {
				fmt.Fprintln(w, out.Handle)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <handle>",
		Short: "Write stored content to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := content.NewPersistent(s.store).Get(commandContext(cmd), args[0])
			switch {
			case errors.Is(err, content.ErrNotFound), errors.Is(err, content.ErrInvalidHandle):
				return WrapExitError(ExitFailure, "content unavailable", err)
			case err != nil:
				return WrapExitError(ExitCommandError, "failed to read content", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
