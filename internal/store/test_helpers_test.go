package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/morph/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestRun(id string, seq int64) ir.Run {
	return ir.Run{
		ID:            id,
		Kind:          ir.RunEval,
		Subject:       "show_next_double",
		StartedSeq:    seq,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

func createTestEvaluation(id, runID, pipeline string, seq int64) ir.Evaluation {
	return ir.Evaluation{
		ID:       id,
		RunID:    runID,
		Pipeline: pipeline,
		Input:    ir.Int(3),
		Output:   ir.String("8"),
		Seq:      seq,
	}
}

func createTestCheck(id, runID string, seq int64, pass bool) ir.Check {
	return ir.Check{
		ID:      id,
		RunID:   runID,
		Law:     "right_identity",
		Subject: "show_next_double",
		Sample:  ir.Int(3),
		Left:    `"8"`,
		Right:   `"8"`,
		Pass:    pass,
		Seq:     seq,
	}
}

func mustWriteRun(t *testing.T, s *Store, run ir.Run) {
	t.Helper()
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
}

func mustWriteEvaluation(t *testing.T, s *Store, ev ir.Evaluation) {
	t.Helper()
	if err := s.WriteEvaluation(context.Background(), ev); err != nil {
		t.Fatalf("WriteEvaluation() failed: %v", err)
	}
}

func mustWriteCheck(t *testing.T, s *Store, c ir.Check) {
	t.Helper()
	if err := s.WriteCheck(context.Background(), c); err != nil {
		t.Fatalf("WriteCheck() failed: %v", err)
	}
}
