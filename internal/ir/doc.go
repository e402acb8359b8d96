// Package ir provides the dynamic values and pipeline IR for morph.
//
// ir imports nothing internal; every other package may import it.
//
// Key design constraints:
//   - No float types anywhere. Numbers are int64.
//   - No null. A missing value is an error, not a Value.
//   - All JSON tags use snake_case.
//   - Logical clocks (seq) only, never wall-clock timestamps.
package ir
