package store

import (
	"context"
	"fmt"

	"github.com/roach88/morph/internal/ir"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, kind, subject, started_seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Kind,
		run.Subject,
		run.StartedSeq,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteEvaluation inserts an evaluation record.
// Input and Output are stored as canonical JSON. Output may be nil when the
// evaluation failed, in which case Error should be set.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteEvaluation(ctx context.Context, ev ir.Evaluation) error {
	input, err := marshalValue("input", ev.Input)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	output, err := marshalOptional("output", ev.Output)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		(id, run_id, pipeline, input, output, error, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.RunID,
		ev.Pipeline,
		input,
		output,
		ev.Error,
		ev.Seq,
	)
	if err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}

// WriteCheck inserts a law check record.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteCheck(ctx context.Context, c ir.Check) error {
	sample, err := marshalValue("sample", c.Sample)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}

	pass := 0
	if c.Pass {
		pass = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checks
		(id, run_id, law, subject, sample, left_result, right_result, pass, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.RunID,
		c.Law,
		c.Subject,
		sample,
		c.Left,
		c.Right,
		pass,
		c.Seq,
	)
	if err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}
