package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/device"
)

// demoDevices are written by seed: one headset per default model, each on
// its own account.
var demoDevices = []device.Fields{
	{ID: "Quest3-001", Model: "Quest3", AccountID: "demo_account_1"},
	{ID: "Quest2-001", Model: "Quest2", AccountID: "demo_account_2"},
	{ID: "HTC-001", Model: "HTC_Vive_XR", AccountID: "demo_account_3"},
}

type seedView struct {
	Added []recordView `json:"added"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty record file with demo headsets",
		Long: `Write three demo headsets (Quest3-001, Quest2-001, HTC-001) on separate
accounts. Refuses to run when any headset is already registered.

Example:
  vats seed --data ./demo.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}

	if n := len(s.engine.Devices()); n > 0 {
		return s.reject("seed", device.NewValidationError("record file already holds %d headset(s); seed only fills an empty one", n))
	}

	view := seedView{Added: make([]recordView, 0, len(demoDevices))}
	var b strings.Builder
	for _, f := range demoDevices {
		d, err := s.engine.Add(f)
		if err != nil {
			return s.reject("seed", err)
		}
		view.Added = append(view.Added, newRecordView(d))
		b.WriteString("✓ added " + d.ID + "\n")
	}
	if err := s.save(); err != nil {
		return err
	}

	return s.out.Success(b.String(), view)
}
