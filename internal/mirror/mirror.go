package mirror

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lumenlab/kaleido/internal/agent"
)

// Snapshot is an immutable, fully-copied view of mirror state at one point
// in time. Receivers own their snapshot and may mutate it freely.
type Snapshot map[string]any

// Observer receives a snapshot after every mirror mutation.
//
// Implementations may be plain functions (ObserverFunc), recorders, or
// bridges onto channels - the mirror only requires the single receive
// capability.
type Observer interface {
	OnSnapshot(s Snapshot) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(s Snapshot) error

// OnSnapshot implements Observer.
func (f ObserverFunc) OnSnapshot(s Snapshot) error {
	return f(s)
}

// BroadcastError aggregates observer failures from a single Update.
//
// Delivery is all-observers-attempted: the error is returned only after
// every observer has been notified, and it lists each failure with the
// observer's registration position.
type BroadcastError struct {
	// Key is the mirror key whose update triggered the broadcast.
	Key string

	// Errs holds one wrapped error per failed observer.
	Errs []error
}

// Error implements the error interface.
func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast for key %q: %d observer(s) failed", e.Key, len(e.Errs))
}

// Unwrap exposes the individual observer failures to errors.Is/As.
func (e *BroadcastError) Unwrap() []error {
	return e.Errs
}

// Agent owns a mutable keyed state snapshot and its observer list.
type Agent struct {
	lc        agent.Lifecycle
	state     map[string]any
	order     []string // key insertion order
	observers []Observer
	logger    *slog.Logger
}

// Option configures a mirror agent.
type Option func(*Agent)

// WithLogger sets the agent's logger. Defaults to a discard handler so
// library use stays silent unless asked otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates a mirror agent in the created state.
func New(opts ...Option) *Agent {
	a := &Agent{
		lc:     agent.NewLifecycle("mirror"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lifecycle returns the agent's current lifecycle state.
func (a *Agent) Lifecycle() agent.State {
	return a.lc.State()
}

// Start seeds the mirror with a copy of initial and transitions to the
// started state. A nil initial seeds an empty mirror. Seeding does NOT
// broadcast - observers only see mutations.
func (a *Agent) Start(initial map[string]any) error {
	if err := a.lc.ToStarted("start"); err != nil {
		return err
	}

	a.state = make(map[string]any, len(initial))
	a.order = make([]string, 0, len(initial))
	for _, key := range sortedKeys(initial) {
		a.state[key] = copyValue(initial[key])
		a.order = append(a.order, key)
	}

	a.logger.Debug("mirror started", "seed_keys", len(a.state))
	return nil
}

// Subscribe appends an observer. Observers are notified in registration
// order; the same observer may be registered more than once and will be
// notified once per registration. Prior state is not delivered.
func (a *Agent) Subscribe(obs Observer) error {
	if err := a.lc.Require("subscribe"); err != nil {
		return err
	}
	a.observers = append(a.observers, obs)
	a.logger.Debug("observer subscribed", "observers", len(a.observers))
	return nil
}

// Update sets state[key] = value (introducing the key if new) and then
// synchronously notifies every observer with a fresh deep copy of the
// post-mutation state.
//
// A failing observer does not prevent delivery to later observers. If any
// observer fails, Update returns a *BroadcastError aggregating all
// failures; the mutation itself is never rolled back.
func (a *Agent) Update(key string, value any) error {
	if err := a.lc.Require("update"); err != nil {
		return err
	}

	if _, exists := a.state[key]; !exists {
		a.order = append(a.order, key)
	}
	a.state[key] = copyValue(value)

	var failures []error
	for i, obs := range a.observers {
		if err := a.notify(obs, a.snapshot()); err != nil {
			failures = append(failures, fmt.Errorf("observer %d: %w", i, err))
		}
	}

	a.logger.Debug("state updated",
		"key", key,
		"observers", len(a.observers),
		"failures", len(failures),
	)

	if len(failures) > 0 {
		return &BroadcastError{Key: key, Errs: failures}
	}
	return nil
}

// notify delivers one snapshot, converting an observer panic into an
// error so delivery continues to the remaining observers.
func (a *Agent) notify(obs Observer, s Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return obs.OnSnapshot(s)
}

// Stop discards the observer list and transitions to the stopped state.
// Mirror contents remain readable through State for post-mortem
// assertions until the instance is discarded.
func (a *Agent) Stop() error {
	if err := a.lc.ToStopped("stop"); err != nil {
		return err
	}
	a.observers = nil
	a.logger.Debug("mirror stopped", "keys", len(a.state))
	return nil
}

// State returns a deep copy of the current state. Valid while started and
// after stop; reading a never-started mirror is a lifecycle error.
func (a *Agent) State() (Snapshot, error) {
	if a.lc.State() == agent.StateCreated {
		return nil, a.lc.Require("read state")
	}
	return a.snapshot(), nil
}

// Keys returns the mirror's keys in insertion order. Same validity rules
// as State.
func (a *Agent) Keys() ([]string, error) {
	if a.lc.State() == agent.StateCreated {
		return nil, a.lc.Require("read keys")
	}
	keys := make([]string, len(a.order))
	copy(keys, a.order)
	return keys, nil
}

// snapshot deep-copies the current state.
func (a *Agent) snapshot() Snapshot {
	s := make(Snapshot, len(a.state))
	for k, v := range a.state {
		s[k] = copyValue(v)
	}
	return s
}

// copyValue deep-copies a state value. Values are numbers, strings,
// booleans, or nested mappings/lists of the same.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[k] = copyValue(elem)
		}
		return m
	case Snapshot:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[k] = copyValue(elem)
		}
		return m
	case []any:
		list := make([]any, len(val))
		for i, elem := range val {
			list[i] = copyValue(elem)
		}
		return list
	default:
		// Scalars are immutable in Go; share them.
		return v
	}
}
