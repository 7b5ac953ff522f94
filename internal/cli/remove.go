package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type removeView struct {
	Removed []string `json:"removed"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove headsets",
		Long: `Remove headsets by id. Either all listed headsets are removed or none:
unknown ids or headsets still in use reject the whole batch.

Example:
  vats remove HTC-001
  vats remove Quest2-001 Quest2-002`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, cmd, args)
		},
	}

	return cmd
}

func runRemove(opts *RootOptions, cmd *cobra.Command, ids []string) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	if err := s.engine.Remove(ids); err != nil {
		return s.reject("remove", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	return s.out.Success(fmt.Sprintf("✓ removed %s\n", strings.Join(ids, ", ")), removeView{Removed: ids})
}
