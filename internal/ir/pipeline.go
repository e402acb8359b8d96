package ir

import "fmt"

// Order is the direction a pipeline's steps are written in.
type Order string

const (
	// Forward lists steps in application order (>>>).
	Forward Order = "forward"
	// Backward lists steps in mathematical order (<<<): the last step runs
	// first.
	Backward Order = "backward"
)

// StepKind says what a step refers to.
type StepKind string

const (
	StepPrimitive StepKind = "primitive"
	StepPipeline  StepKind = "pipeline"
)

// PipelineSpec is a compiled pipeline definition.
type PipelineSpec struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Input       Kind      `json:"input"`
	Output      Kind      `json:"output,omitempty"` // empty: inferred
	Steps       []StepRef `json:"steps"`
	Order       Order     `json:"order"`
}

// StepRef names one stage of a pipeline.
type StepRef struct {
	Name string   `json:"name"`
	Kind StepKind `json:"kind"`
}

// Applied returns the steps in application order.
func (p PipelineSpec) Applied() []StepRef {
	out := make([]StepRef, len(p.Steps))
	if p.Order == Backward {
		for i, s := range p.Steps {
			out[len(p.Steps)-1-i] = s
		}
		return out
	}
	copy(out, p.Steps)
	return out
}

// References returns the names of pipelines this pipeline uses, in order of
// first appearance.
func (p PipelineSpec) References() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, s := range p.Steps {
		if s.Kind == StepPipeline && !seen[s.Name] {
			seen[s.Name] = true
			refs = append(refs, s.Name)
		}
	}
	return refs
}

// String renders the pipeline in its written notation.
func (p PipelineSpec) String() string {
	sep := " >>> "
	if p.Order == Backward {
		sep = " <<< "
	}
	out := p.Name + " = "
	for i, s := range p.Steps {
		if i > 0 {
			out += sep
		}
		if s.Kind == StepPipeline {
			out += "@"
		}
		out += s.Name
	}
	if len(p.Steps) == 0 {
		out += "id"
	}
	return out
}

// ParseStep turns a written step ("inc" or "@other") into a StepRef.
func ParseStep(s string) (StepRef, error) {
	if s == "" || s == "@" {
		return StepRef{}, fmt.Errorf("empty step name")
	}
	if s[0] == '@' {
		return StepRef{Name: s[1:], Kind: StepPipeline}, nil
	}
	return StepRef{Name: s, Kind: StepPrimitive}, nil
}

// Run records one invocation of the tool: an evaluation or a law check.
type Run struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"` // "eval" or "check"
	Subject       string `json:"subject"`
	StartedSeq    int64  `json:"started_seq"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// Run kinds.
const (
	RunEval  = "eval"
	RunCheck = "check"
)

// Evaluation records one pipeline application.
type Evaluation struct {
	ID       string `json:"id"`
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`
	Input    Value  `json:"input"`
	Output   Value  `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	Seq      int64  `json:"seq"`
}

// Check records one law observed on one sample.
type Check struct {
	ID      string `json:"id"`
	RunID   string `json:"run_id"`
	Law     string `json:"law"`
	Subject string `json:"subject"`
	Sample  Value  `json:"sample"`
	Left    string `json:"left"`
	Right   string `json:"right"`
	Pass    bool   `json:"pass"`
	Seq     int64  `json:"seq"`
}
