// Package engine evaluates linked pipelines and keeps the run log.
//
// Every run, evaluation and law check is stamped with a seq from a
// monotonic logical Clock, never a wall-clock timestamp. Evaluation IDs are
// content hashes of (run, pipeline, input, seq), so replaying the same
// inputs under the same run ID and clock produces the same log.
//
// Evaluation is concurrent where it can be: EvaluateBatch fans inputs out
// over a bounded worker group. Stamping and store writes are serialized, so
// the store only ever sees one writer and seq order matches write order.
package engine
