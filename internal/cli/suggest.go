package cli

import (
	"github.com/spf13/cobra"
)

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest the next headset to hand out",
		Long: `Suggest the idle headset to hand out next.

Only headsets that are idle and whose account is free are eligible. The
lowest effective priority wins; ties go to the headset unused the longest.

Example:
  vats suggest`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(rootOpts, cmd)
		},
	}

	return cmd
}

func runSuggest(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	best, ok := s.engine.Suggest()
	view := suggestionView{Found: ok}
	if ok {
		p, _ := s.engine.Config().EffectivePriority(best)
		view.ID = best.ID
		view.Model = best.Model
		view.AccountID = best.AccountID
		view.Priority = p
	}
	s.logger.Debug("suggestion computed", "found", ok, "id", view.ID)

	return s.out.Success(formatSuggestion(s.engine, best, ok), view)
}
