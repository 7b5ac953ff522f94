package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type toggleView struct {
	ID    string `json:"id"`
	InUse bool   `json:"in_use"`
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Return a checked-out headset or check out an idle one",
		Long: `Flip a headset between idle and in use.

Checking out through toggle applies the same account rules as checkout.

Example:
  vats toggle Quest2-001`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runToggle(opts *RootOptions, cmd *cobra.Command, id string) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	inUse, err := s.engine.Toggle(id)
	if err != nil {
		return s.reject("toggle", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	verb := "returned"
	if inUse {
		verb = "checked out"
	}
	return s.out.Success(fmt.Sprintf("✓ %s %s\n", verb, id), toggleView{ID: id, InUse: inUse})
}
