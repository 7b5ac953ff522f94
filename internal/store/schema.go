package store

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// maxReportedIssues caps how many schema violations end up in one error.
const maxReportedIssues = 5

// validateShape parses data as JSON and unifies it with #Devices.
// name is used in positions of reported errors.
func validateShape(name string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Devices"))
	if !def.Exists() {
		return fmt.Errorf("compile schema: #Devices not defined")
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return fmt.Errorf("parse JSON: %s", formatCUEError(err))
	}
	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("parse JSON: %s", formatCUEError(err))
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid records: %s", formatCUEError(err))
	}
	return nil
}

// formatCUEError flattens a CUE error list into one line, keeping the first
// few entries.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(errs))
	for i, e := range errs {
		if i == maxReportedIssues {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := e.Path(); len(path) > 0 {
			msg = strings.Join(path, ".") + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
