package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/engine"
)

// deviceView is the JSON shape of one listed device.
type deviceView struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	AccountID      string `json:"account_id"`
	InUse          bool   `json:"in_use"`
	LastUsed       string `json:"last_used"`
	Status         string `json:"status"`
	Priority       int    `json:"priority"`
	CustomPriority bool   `json:"custom_priority"`
	Suggested      bool   `json:"suggested"`
}

func newDeviceView(r engine.Row) deviceView {
	return deviceView{
		ID:             r.Device.ID,
		Model:          r.Device.Model,
		AccountID:      r.Device.AccountID,
		InUse:          r.Device.InUse,
		LastUsed:       device.FormatTimestamp(r.Device.LastUsed),
		Status:         r.Status.String(),
		Priority:       r.Priority,
		CustomPriority: r.CustomPriority,
		Suggested:      r.Suggested,
	}
}

// listView is the JSON payload of the list command.
type listView struct {
	Devices      []deviceView `json:"devices"`
	Suggestion   string       `json:"suggestion,omitempty"`
	UsedAccounts []string     `json:"used_accounts"`
	Hidden       int          `json:"hidden"`
}

// suggestionView is the JSON payload of the suggest command.
type suggestionView struct {
	ID        string `json:"id,omitempty"`
	Model     string `json:"model,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	Priority  int    `json:"priority,omitempty"`
	Found     bool   `json:"found"`
}

// itemFailure is one failed batch item.
type itemFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// batchView is the JSON payload of checkout and return.
type batchView struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []itemFailure `json:"failed"`
}

func newBatchView(r engine.BatchResult) batchView {
	v := batchView{
		Succeeded: r.Succeeded,
		Failed:    make([]itemFailure, 0, len(r.Failed)),
	}
	if v.Succeeded == nil {
		v.Succeeded = []string{}
	}
	for _, f := range r.Failed {
		v.Failed = append(v.Failed, newItemFailure(f))
	}
	return v
}

func newItemFailure(f engine.ItemError) itemFailure {
	code := string(device.CodeOf(f.Err))
	msg := f.Err.Error()
	var de *device.Error
	if errors.As(f.Err, &de) {
		msg = de.Message
	}
	return itemFailure{ID: f.DeviceID, Code: code, Message: msg}
}

// formatBatch renders a batch result as one line per item.
func formatBatch(verb string, r engine.BatchResult) string {
	var b strings.Builder
	for _, id := range r.Succeeded {
		fmt.Fprintf(&b, "✓ %s %s\n", verb, id)
	}
	for _, f := range r.Failed {
		item := newItemFailure(f)
		fmt.Fprintf(&b, "✗ %s [%s]: %s\n", item.ID, item.Code, item.Message)
	}
	return b.String()
}

// formatRows renders the listing table. The suggested device is marked
// with an asterisk.
func formatRows(rows []engine.Row, hidden int) string {
	var b strings.Builder
	if len(rows) == 0 {
		b.WriteString("No headsets to show.\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "\tID\tMODEL\tACCOUNT\tSTATUS\tPRIORITY\tLAST USED")
		for _, r := range rows {
			mark := ""
			if r.Suggested {
				mark = "*"
			}
			prio := fmt.Sprintf("%d", r.Priority)
			if r.CustomPriority {
				prio += " (custom)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				mark, r.Device.ID, r.Device.Model, r.Device.AccountID,
				r.Status, prio, r.Device.LastUsed.Format("2006-01-02 15:04"))
		}
		_ = tw.Flush()
	}
	if hidden > 0 {
		fmt.Fprintf(&b, "(%d blocked headset(s) hidden)\n", hidden)
	}
	return b.String()
}

func sortedAccounts(set engine.AccountSet) []string {
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
