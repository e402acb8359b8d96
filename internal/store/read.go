package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/queryir"
	"github.com/roach88/morph/internal/querysql"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadRun retrieves a single run by ID.
// Returns an error wrapping ErrNotFound if no run has that ID.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	runs, err := s.QueryRuns(ctx, queryir.Equals{Column: "id", Value: ir.String(id)})
	if err != nil {
		return ir.Run{}, err
	}
	if len(runs) == 0 {
		return ir.Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	return runs[0], nil
}

// ReadRuns returns every run ordered by started_seq ASC, id ASC.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ReadRuns(ctx context.Context) ([]ir.Run, error) {
	return s.QueryRuns(ctx, nil)
}

// ReadEvaluations returns the evaluations of one run, ordered by
// seq ASC, id ASC COLLATE BINARY.
func (s *Store) ReadEvaluations(ctx context.Context, runID string) ([]ir.Evaluation, error) {
	return s.QueryEvaluations(ctx, queryir.Equals{Column: "run_id", Value: ir.String(runID)})
}

// ReadPipelineHistory returns every evaluation of the named pipeline across
// runs, ordered by seq ASC, id ASC COLLATE BINARY.
func (s *Store) ReadPipelineHistory(ctx context.Context, pipeline string) ([]ir.Evaluation, error) {
	return s.QueryEvaluations(ctx, queryir.Equals{Column: "pipeline", Value: ir.String(pipeline)})
}

// ReadChecks returns the law checks of one run, ordered by
// seq ASC, id ASC COLLATE BINARY.
func (s *Store) ReadChecks(ctx context.Context, runID string) ([]ir.Check, error) {
	return s.QueryChecks(ctx, queryir.Equals{Column: "run_id", Value: ir.String(runID)})
}

// QueryRuns returns the runs matching filter (nil matches all) in seq order.
func (s *Store) QueryRuns(ctx context.Context, filter queryir.Predicate) ([]ir.Run, error) {
	return query(ctx, s, queryir.TableRuns, filter, scanRun)
}

// QueryEvaluations returns the evaluations matching filter (nil matches all)
// in seq order.
func (s *Store) QueryEvaluations(ctx context.Context, filter queryir.Predicate) ([]ir.Evaluation, error) {
	return query(ctx, s, queryir.TableEvaluations, filter, scanEvaluation)
}

// QueryChecks returns the checks matching filter (nil matches all) in seq
// order.
func (s *Store) QueryChecks(ctx context.Context, filter queryir.Predicate) ([]ir.Check, error) {
	return query(ctx, s, queryir.TableChecks, filter, scanCheck)
}

// query compiles a select on table and scans every row. The result is never
// nil.
func query[T any](ctx context.Context, s *Store, table queryir.Table, filter queryir.Predicate, scan func(scanner) (T, error)) ([]T, error) {
	q, params, err := querysql.Compile(queryir.Select{From: table, Filter: filter})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	if err := row.Scan(&run.ID, &run.Kind, &run.Subject, &run.StartedSeq, &run.EngineVersion, &run.IRVersion); err != nil {
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func scanEvaluation(row scanner) (ir.Evaluation, error) {
	var (
		ev     ir.Evaluation
		input  string
		output sql.NullString
	)
	if err := row.Scan(&ev.ID, &ev.RunID, &ev.Pipeline, &input, &output, &ev.Error, &ev.Seq); err != nil {
		return ir.Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}

	var err error
	if ev.Input, err = unmarshalValue("input", input); err != nil {
		return ir.Evaluation{}, err
	}
	if ev.Output, err = unmarshalOptional("output", output); err != nil {
		return ir.Evaluation{}, err
	}
	return ev, nil
}

func scanCheck(row scanner) (ir.Check, error) {
	var (
		c      ir.Check
		sample string
		pass   int
	)
	if err := row.Scan(&c.ID, &c.RunID, &c.Law, &c.Subject, &sample, &c.Left, &c.Right, &pass, &c.Seq); err != nil {
		return ir.Check{}, fmt.Errorf("scan check: %w", err)
	}

	var err error
	if c.Sample, err = unmarshalValue("sample", sample); err != nil {
		return ir.Check{}, err
	}
	c.Pass = pass == 1
	return c, nil
}
