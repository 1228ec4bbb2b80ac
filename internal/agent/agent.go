// Package agent provides the shared lifecycle contract for harness agents.
//
// Every agent (config, mirror, orchestrator) owns exactly one Lifecycle
// value and moves through a guarded finite-state machine:
//
//	StateCreated -> StateStarted -> StateStopped
//
// Transitions are explicit and one-way. An agent that fails to start stays
// in StateCreated and is not reusable - callers construct a fresh instance
// instead of retrying. Operations invoked outside the required state fail
// with *LifecycleError; they never mutate agent state.
//
// Thread-safety model: agents are single-flow by contract. Callers must
// serialize start/stop/operation calls on a given instance. The Lifecycle
// type therefore carries no locking of its own.
package agent

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of an agent.
type State int

const (
	// StateCreated is the initial state. Only Start is valid here.
	StateCreated State = iota
	// StateStarted is the operational state. All agent operations are valid.
	StateStarted
	// StateStopped is the terminal state. No further transitions exist.
	StateStopped
)

// String returns the lowercase state name used in errors and logs.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Lifecycle tracks the state machine for one agent instance.
//
// Embed a Lifecycle by value and route every transition through
// ToStarted/ToStopped, and every stateful operation through Require.
// The zero value is unusable - construct with NewLifecycle so errors
// carry the agent name.
type Lifecycle struct {
	agent string
	state State
}

// NewLifecycle creates a lifecycle in StateCreated for the named agent.
// The name appears in LifecycleError messages (e.g. "mirror", "config").
func NewLifecycle(agent string) Lifecycle {
	return Lifecycle{agent: agent, state: StateCreated}
}

// State returns the current lifecycle state.
// Valid in any state - inspecting the lifecycle is always allowed.
func (l *Lifecycle) State() State {
	return l.state
}

// ToStarted transitions StateCreated -> StateStarted.
// Returns *LifecycleError if the agent is not in StateCreated.
//
// Agents call this AFTER their startup work succeeds, so a failed start
// leaves the lifecycle in StateCreated.
func (l *Lifecycle) ToStarted(op string) error {
	if l.state != StateCreated {
		return &LifecycleError{Agent: l.agent, Op: op, State: l.state, Want: StateCreated}
	}
	l.state = StateStarted
	return nil
}

// ToStopped transitions StateStarted -> StateStopped.
// Returns *LifecycleError if the agent is not in StateStarted.
// A second stop is an error, not a no-op: double-stop indicates a caller
// bug and the guarded FSM surfaces it.
func (l *Lifecycle) ToStopped(op string) error {
	if l.state != StateStarted {
		return &LifecycleError{Agent: l.agent, Op: op, State: l.state, Want: StateStarted}
	}
	l.state = StateStopped
	return nil
}

// Require returns nil when the agent is in StateStarted, and a
// *LifecycleError naming the rejected operation otherwise.
func (l *Lifecycle) Require(op string) error {
	if l.state != StateStarted {
		return &LifecycleError{Agent: l.agent, Op: op, State: l.state, Want: StateStarted}
	}
	return nil
}

// LifecycleError reports an operation invoked outside its required state.
//
// This is always a programming-usage error on the caller's side. It is
// never retried automatically and the rejected operation leaves agent
// state untouched.
type LifecycleError struct {
	// Agent names the agent instance (e.g. "mirror", "config").
	Agent string

	// Op is the rejected operation (e.g. "update", "subscribe").
	Op string

	// State is the lifecycle state at the time of the call.
	State State

	// Want is the state the operation requires.
	Want State
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s agent: cannot %s while %s (requires %s)", e.Agent, e.Op, e.State, e.Want)
}

// IsLifecycleError returns true if err is (or wraps) a *LifecycleError.
func IsLifecycleError(err error) bool {
	var le *LifecycleError
	return errors.As(err, &le)
}
