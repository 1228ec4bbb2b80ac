// Package harness drives fixed-step simulations of synesthetic assets.
//
// The orchestrator composes one config agent, one mirror agent, and the
// modulation rules found in the loaded asset. A run is a fixed-step
// loop: at each step the virtual time is step*dt, every rule's value is
// computed for that time, and each value is written to the mirror under
// the rule's target key. Observers registered on the orchestrator see
// every mirror broadcast.
//
// DETERMINISM
//
// Runs are deterministic: virtual time is derived purely from the step
// index and dt (no wall clock), rules apply in declaration order, and
// trace events carry sequence numbers from a logical clock. Re-running
// the same asset with the same steps/dt yields an identical final state,
// issue list, and trace. Golden trace files lock this property down; the
// session token is the only varying component and scenarios pin it.
//
// FAILURE SEMANTICS
//
// Asset load failures abort the run before any mirror state exists.
// Rule failures mid-loop (unknown waveform, missing target) abort the
// remaining steps but the partial result - mirror state written so far,
// load-time issues, trace - is returned alongside the error. Observer
// failures never halt the loop; they accumulate as faults on the result.
//
// SCENARIOS
//
// YAML scenario files describe a run declaratively: the asset source,
// step count, dt, a pinned session token, and assertions over the final
// state, the issue list, and the update trace. RunScenario executes one;
// RunWithGolden additionally compares the canonical trace serialization
// against a golden file.
package harness
