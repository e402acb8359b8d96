// Package harness checks the category laws against linked pipelines.
//
// A scenario names CUE pipeline files, sample inputs and a list of laws.
// Run compiles and links the pipelines, then checks every law on every
// sample over the pipeline.Dynamic category and records one check per
// sample in the run log.
//
// # Scenario Format
//
//	name: arithmetic-laws
//	description: identity, associativity and aliases over int pipelines
//	pipelines:
//	  - pipelines/arith.cue
//	samples: [0, 1, 3, -7]
//	laws:
//	  - law: identity
//	    subject: inc
//	  - law: associativity
//	    f: inc
//	    g: double
//	    h: to_string
//	  - law: aliases
//	    f: inc
//	    g: double
//	  - law: expect
//	    subject: show_next_double
//	    input: 3
//	    output: "8"
//
// Subjects and f/g/h name a linked pipeline or, failing that, a catalog
// primitive. A law may carry its own samples, which replace the scenario's.
// An expect law takes either output or error (a substring of the failure).
//
// Against pipeline.Dynamic's own identity the identity law holds by
// construction, since Compose returns the other operand unchanged. The law
// is therefore also checked with the registry's id primitive on either
// side of the subject, which runs a real two-stage composition.
//
// # Deterministic Runs
//
// Every run uses a testutil.DeterministicClock and run IDs derived from the
// scenario name, so the same scenario always produces the same trace. Traces
// are compared against golden files with RunWithGolden and AssertGolden.
package harness
