package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/engine"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	HideBlocked bool
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List headsets with their availability",
		Long: `List every headset with its status and effective priority.

Status is one of:
  Available       idle and its account is free
  Account in use  idle, but another headset on its account is checked out
  In Use          checked out

The suggested next headset is marked with an asterisk. --hide-blocked only
narrows the listing; the suggestion always considers every headset.

Example:
  vats list
  vats list --hide-blocked --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.HideBlocked, "hide-blocked", false, "hide idle headsets whose account is in use elsewhere")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	rows := s.engine.Rows(opts.HideBlocked)
	hidden := len(s.engine.Devices()) - len(rows)

	view := listView{
		Devices:      make([]deviceView, 0, len(rows)),
		UsedAccounts: sortedAccounts(s.engine.UsedAccounts()),
		Hidden:       hidden,
	}
	for _, r := range rows {
		view.Devices = append(view.Devices, newDeviceView(r))
	}

	best, ok := s.engine.Suggest()
	if ok {
		view.Suggestion = best.ID
	}

	s.logger.Debug("listed devices", "shown", len(rows), "hidden", hidden)
	return s.out.Success(formatRows(rows, hidden)+formatSuggestion(s.engine, best, ok), view)
}

func formatSuggestion(e *engine.Engine, best device.Device, ok bool) string {
	if !ok {
		return "No headset available to suggest.\n"
	}
	p, _ := e.Config().EffectivePriority(best)
	return fmt.Sprintf("Suggested next: %s (%s, priority %d)\n", best.ID, best.Model, p)
}
