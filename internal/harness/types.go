package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/ir"
)

// TraceEvent is one recorded check.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Law     string   `json:"law"`
	Subject string   `json:"subject"`
	Sample  ir.Value `json:"sample"`
	Left    string   `json:"left"`
	Right   string   `json:"right"`
	Pass    bool     `json:"pass"`

	// Clause names the violated part of the law, e.g. right_identity.
	Clause string `json:"clause,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every law held on every sample and the scenario
	// had no configuration errors.
	Pass bool `json:"pass"`

	RunID      string       `json:"run_id"`
	StartedSeq int64        `json:"started_seq"`
	Trace      []TraceEvent `json:"trace"`

	// Errors is empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with nothing recorded.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed returns the events whose law did not hold.
func (r *Result) Failed() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if !ev.Pass {
			out = append(out, ev)
		}
	}
	return out
}

// LawFailure describes one sample on which a law did not hold.
type LawFailure struct {
	Event TraceEvent
	Trace []TraceEvent // the checks recorded before this one
}

func (f *LawFailure) Error() string {
	var buf strings.Builder
	law := f.Event.Law
	if f.Event.Clause != "" && f.Event.Clause != law {
		law = fmt.Sprintf("%s (%s)", law, f.Event.Clause)
	}
	fmt.Fprintf(&buf, "Law failed: %s on %s\n", law, f.Event.Subject)
	fmt.Fprintf(&buf, "  Sample: %s\n", ir.Format(f.Event.Sample))
	fmt.Fprintf(&buf, "  Left: %s\n", f.Event.Left)
	fmt.Fprintf(&buf, "  Right: %s\n", f.Event.Right)

	if len(f.Trace) > 0 {
		fmt.Fprintf(&buf, "\nEarlier checks:\n")
		for _, ev := range f.Trace {
			mark := "ok"
			if !ev.Pass {
				mark = "FAIL"
			}
			fmt.Fprintf(&buf, "  [%d] %s %s %s %s\n", ev.Seq, mark, ev.Law, ev.Subject, ir.Format(ev.Sample))
		}
	}
	return buf.String()
}
