package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/device"
)

// PriorityOptions holds flags for the priority command.
type PriorityOptions struct {
	*RootOptions
	Clear bool
}

type priorityView struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
	Custom   bool   `json:"custom"`
}

// NewPriorityCommand creates the priority command.
func NewPriorityCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PriorityOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "priority <id> [value]",
		Short: "Set or clear a headset's custom priority",
		Long: `Override the model default priority of one headset (1 = highest).

With --clear the override is dropped and the model default applies again.
Priorities can be changed whether or not the headset is in use.

Example:
  vats priority HTC-001 1
  vats priority HTC-001 --clear`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Clear && len(args) == 2 {
				return NewExitError(ExitCommandError, "priority: give a value or --clear, not both")
			}
			if !opts.Clear && len(args) == 1 {
				return NewExitError(ExitCommandError, "priority: missing value (or use --clear)")
			}
			return runPriority(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "drop the custom priority")

	return cmd
}

func runPriority(opts *PriorityOptions, cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	id := args[0]
	if opts.Clear {
		err = s.engine.ClearPriority(id)
	} else {
		value, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return s.reject("priority", device.NewValidationError("priority must be an integer, got %q", args[1]))
		}
		err = s.engine.SetPriority(id, value)
	}
	if err != nil {
		return s.reject("priority", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	d, err := s.engine.Device(id)
	if err != nil {
		return s.reject("priority", err)
	}
	p, custom := s.engine.Config().EffectivePriority(d)

	text := fmt.Sprintf("✓ %s priority %d (model default)\n", id, p)
	if custom {
		text = fmt.Sprintf("✓ %s priority %d (custom)\n", id, p)
	}
	return s.out.Success(text, priorityView{ID: id, Priority: p, Custom: custom})
}
