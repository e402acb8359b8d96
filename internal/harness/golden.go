package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/morph/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run. It leaves out the run
// ID and numbers seqs as if the run had started at seq 1, so a run appended
// to an existing log snapshots the same as a fresh one.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	StartedSeq   int64        `json:"-"`
	Trace        []TraceEvent `json:"trace"`
}

// Snapshot captures result for golden comparison.
func Snapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: name, StartedSeq: result.StartedSeq, Trace: result.Trace}
}

func (s TraceSnapshot) seq(raw int64) int64 {
	if s.StartedSeq == 0 {
		return raw
	}
	return raw - s.StartedSeq + 1
}

// toRecord converts s to an ir.Record so it can go through
// ir.MarshalCanonical.
func (s TraceSnapshot) toRecord() ir.Record {
	trace := make(ir.List, len(s.Trace))
	for i, ev := range s.Trace {
		rec := ir.Record{
			"seq":     ir.Int(s.seq(ev.Seq)),
			"law":     ir.String(ev.Law),
			"subject": ir.String(ev.Subject),
			"sample":  ev.Sample,
			"left":    ir.String(ev.Left),
			"right":   ir.String(ev.Right),
			"pass":    ir.Bool(ev.Pass),
		}
		if ev.Clause != "" {
			rec["clause"] = ir.String(ev.Clause)
		}
		trace[i] = rec
	}
	return ir.Record{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         trace,
	}
}

// MarshalCanonical renders s as canonical JSON, the golden file format.
func (s TraceSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toRecord())
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, Options{})
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
