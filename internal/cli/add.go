package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vats/internal/device"
)

// FieldOptions holds the device attribute flags shared by add and edit.
type FieldOptions struct {
	*RootOptions
	ID        string
	Model     string
	AccountID string
	Priority  int
}

func (o *FieldOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ID, "id", "", "headset id (unique)")
	cmd.Flags().StringVar(&o.Model, "model", "", "headset model, e.g. Quest3")
	cmd.Flags().StringVar(&o.AccountID, "account", "", "platform account the headset signs in with")
	cmd.Flags().IntVar(&o.Priority, "priority", 0, "custom priority (1 = highest)")
}

// recordView is the JSON shape of a stored record.
type recordView struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	AccountID      string `json:"account_id"`
	InUse          bool   `json:"in_use"`
	LastUsed       string `json:"last_used"`
	CustomPriority *int   `json:"custom_priority,omitempty"`
}

func newRecordView(d device.Device) recordView {
	return recordView{
		ID:             d.ID,
		Model:          d.Model,
		AccountID:      d.AccountID,
		InUse:          d.InUse,
		LastUsed:       device.FormatTimestamp(d.LastUsed),
		CustomPriority: d.CustomPriority,
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FieldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new headset",
		Long: `Register a new idle headset.

--id and --account are required and ids must be unique. Surrounding
whitespace is trimmed.

Example:
  vats add --id Quest3-002 --model Quest3 --account team_account_4
  vats add --id Pico-001 --model Pico4 --account team_account_5 --priority 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	opts.bind(cmd)

	return cmd
}

func runAdd(opts *FieldOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	f := device.Fields{ID: opts.ID, Model: opts.Model, AccountID: opts.AccountID}
	if cmd.Flags().Changed("priority") {
		f.CustomPriority = device.IntPtr(opts.Priority)
	}

	d, err := s.engine.Add(f)
	if err != nil {
		return s.reject("add", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	return s.out.Success(fmt.Sprintf("✓ added %s (%s, account %s)\n", d.ID, d.Model, d.AccountID), newRecordView(d))
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FieldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an idle headset's id, model or account",
		Long: `Change the attributes of an idle headset. Flags not given keep their
current value. In-use headsets cannot be edited; return them first.

Usage state and history are kept. The custom priority is kept unless
--priority is given.

Example:
  vats edit Quest2-001 --account demo_account_9
  vats edit Quest2-001 --id Quest2-007 --priority 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, cmd, args[0])
		},
	}

	opts.bind(cmd)

	return cmd
}

func runEdit(opts *FieldOptions, cmd *cobra.Command, id string) error {
	s, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	current, err := s.engine.Device(id)
	if err != nil {
		return s.reject("edit", err)
	}

	f := device.Fields{ID: current.ID, Model: current.Model, AccountID: current.AccountID}
	flags := cmd.Flags()
	if flags.Changed("id") {
		f.ID = opts.ID
	}
	if flags.Changed("model") {
		f.Model = opts.Model
	}
	if flags.Changed("account") {
		f.AccountID = opts.AccountID
	}
	if flags.Changed("priority") {
		f.CustomPriority = device.IntPtr(opts.Priority)
	}

	if err := s.engine.Edit(id, f); err != nil {
		return s.reject("edit", err)
	}
	if err := s.save(); err != nil {
		return err
	}

	newID := device.NormalizeKey(f.ID)
	d, err := s.engine.Device(newID)
	if err != nil {
		return s.reject("edit", err)
	}
	return s.out.Success(fmt.Sprintf("✓ edited %s\n", id), newRecordView(d))
}
