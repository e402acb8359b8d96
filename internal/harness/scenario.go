package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/morph/internal/ir"
)

// Scenario is a law-checking scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Pipelines lists CUE files to compile and link. May be empty when
	// every law names catalog primitives only.
	Pipelines []string `yaml:"pipelines,omitempty"`

	// Samples are the default inputs for every law.
	Samples []any `yaml:"samples,omitempty"`

	Laws []LawSpec `yaml:"laws"`
}

// LawSpec is one law to check.
type LawSpec struct {
	Law     string `yaml:"law"`
	Subject string `yaml:"subject,omitempty"`
	F       string `yaml:"f,omitempty"`
	G       string `yaml:"g,omitempty"`
	H       string `yaml:"h,omitempty"`

	// Samples replace the scenario samples for this law.
	Samples []any `yaml:"samples,omitempty"`

	// Input, Output and Error are used by expect.
	Input  any    `yaml:"input,omitempty"`
	Output any    `yaml:"output,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Law names accepted in scenarios.
const (
	LawIdentity      = "identity"
	LawAssociativity = "associativity"
	LawAliases       = "aliases"
	LawExpect        = "expect"
)

// LoadScenario reads and validates a scenario file. Pipeline paths are
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and validates a scenario file, resolving
// relative pipeline paths against basePath. An empty basePath leaves them
// as written.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Pipelines {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Pipelines[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Laws) == 0 {
		return fmt.Errorf("laws list is required and must be non-empty")
	}

	for _, p := range s.Pipelines {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("pipeline file not found: %s", p)
		}
	}
	if _, err := toValues(s.Samples); err != nil {
		return fmt.Errorf("samples: %w", err)
	}

	for i := range s.Laws {
		if err := validateLaw(i, &s.Laws[i], len(s.Samples) > 0); err != nil {
			return err
		}
	}
	return nil
}

func validateLaw(index int, l *LawSpec, haveSamples bool) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("laws[%d]: %s is required for %s", index, field, l.Law)
		}
		return nil
	}
	sampled := func() error {
		if _, err := toValues(l.Samples); err != nil {
			return fmt.Errorf("laws[%d].samples: %w", index, err)
		}
		if !haveSamples && len(l.Samples) == 0 {
			return fmt.Errorf("laws[%d]: %s needs samples", index, l.Law)
		}
		return nil
	}

	switch l.Law {
	case "":
		return fmt.Errorf("laws[%d]: law is required", index)
	case LawIdentity:
		if err := need("subject", l.Subject); err != nil {
			return err
		}
		return sampled()
	case LawAssociativity:
		for _, f := range []struct{ name, v string }{{"f", l.F}, {"g", l.G}, {"h", l.H}} {
			if err := need(f.name, f.v); err != nil {
				return err
			}
		}
		return sampled()
	case LawAliases:
		if err := need("f", l.F); err != nil {
			return err
		}
		if err := need("g", l.G); err != nil {
			return err
		}
		return sampled()
	case LawExpect:
		if err := need("subject", l.Subject); err != nil {
			return err
		}
		if l.Input == nil {
			return fmt.Errorf("laws[%d]: input is required for expect", index)
		}
		if _, err := ir.FromNative(l.Input); err != nil {
			return fmt.Errorf("laws[%d].input: %w", index, err)
		}
		switch {
		case l.Output == nil && l.Error == "":
			return fmt.Errorf("laws[%d]: expect needs output or error", index)
		case l.Output != nil && l.Error != "":
			return fmt.Errorf("laws[%d]: expect takes output or error, not both", index)
		case l.Output != nil:
			if _, err := ir.FromNative(l.Output); err != nil {
				return fmt.Errorf("laws[%d].output: %w", index, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("laws[%d]: unknown law %q", index, l.Law)
	}
}

// toValues converts YAML-decoded samples.
func toValues(raw []any) ([]ir.Value, error) {
	out := make([]ir.Value, len(raw))
	for i, r := range raw {
		v, err := ir.FromNative(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
