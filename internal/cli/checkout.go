package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/engine"
)

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout <id>...",
		Short: "Check out one or more headsets",
		Long: `Check out headsets by id.

Each id is processed in order and independently: a headset that is already
in use, or whose account is in use by another headset, is reported and the
rest continue. Checking out two headsets on the same account in one call
succeeds for the first only.

Exit code is 1 if any headset could not be checked out.

Example:
  vats checkout Quest3-001
  vats checkout Quest3-001 HTC-001 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			return s.finishBatch("checkout", "checked out", s.engine.CheckoutBatch(args))
		},
	}

	return cmd
}

// NewReturnCommand creates the return command.
func NewReturnCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return <id>...",
		Short: "Return one or more headsets",
		Long: `Return headsets by id. Returning an idle headset is a no-op.

Unknown ids are reported and the rest continue. Exit code is 1 if any id
was unknown.

Example:
  vats return Quest3-001 HTC-001`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			return s.finishBatch("return", "returned", s.engine.ReturnBatch(args))
		},
	}

	return cmd
}

// finishBatch saves when anything changed, reports every item, and maps any
// failed item to exit code 1.
func (s *session) finishBatch(op, verb string, r engine.BatchResult) error {
	for _, f := range r.Failed {
		s.logger.Info("item rejected", "cmd", op, "id", f.DeviceID, "error", f.Err)
	}

	if len(r.Succeeded) > 0 {
		if err := s.save(); err != nil {
			return err
		}
	}

	text := formatBatch(verb, r)
	view := newBatchView(r)
	if r.OK() {
		return s.out.Success(text, view)
	}

	_ = s.out.Partial(text, view)
	total := len(r.Succeeded) + len(r.Failed)
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %d of %d failed", op, len(r.Failed), total))
}
