package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed IDs. The version suffix leaves room
// to change the hashed shape later.
const (
	DomainPipeline   = "morph/pipeline/v1"
	DomainEvaluation = "morph/evaluation/v1"
	DomainCheck      = "morph/check/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separates domain from data.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PipelineID is the content hash of a pipeline's shape. The description does
// not take part: two pipelines with the same stages in the same order have
// the same ID.
func PipelineID(spec PipelineSpec) (string, error) {
	steps := make(List, len(spec.Steps))
	for i, s := range spec.Steps {
		steps[i] = Record{"name": String(s.Name), "kind": String(s.Kind)}
	}
	rec := Record{
		"name":   String(spec.Name),
		"input":  String(spec.Input),
		"output": String(spec.Output),
		"order":  String(spec.Order),
		"steps":  steps,
	}

	canonical, err := MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("PipelineID: %w", err)
	}
	return hashWithDomain(DomainPipeline, canonical), nil
}

// EvaluationID identifies one evaluation of a pipeline on an input.
func EvaluationID(runID, pipelineID string, input Value, seq int64) (string, error) {
	if input == nil {
		return "", fmt.Errorf("EvaluationID: input is required")
	}
	rec := Record{
		"run_id":      String(runID),
		"pipeline_id": String(pipelineID),
		"input":       input,
		"seq":         Int(seq),
	}

	canonical, err := MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("EvaluationID: %w", err)
	}
	return hashWithDomain(DomainEvaluation, canonical), nil
}

// CheckID identifies one law check within a run. The seq is part of the
// ID, so a law observed twice on the same sample yields two records.
func CheckID(runID, law, subject string, sample Value, seq int64) (string, error) {
	if sample == nil {
		return "", fmt.Errorf("CheckID: sample is required")
	}
	rec := Record{
		"run_id":  String(runID),
		"law":     String(law),
		"subject": String(subject),
		"sample":  sample,
		"seq":     Int(seq),
	}

	canonical, err := MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("CheckID: %w", err)
	}
	return hashWithDomain(DomainCheck, canonical), nil
}

// MustPipelineID is like PipelineID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPipelineID(spec PipelineSpec) string {
	id, err := PipelineID(spec)
	if err != nil {
		panic(err)
	}
	return id
}
