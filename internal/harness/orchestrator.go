package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lumenlab/kaleido/internal/agent"
	"github.com/lumenlab/kaleido/internal/config"
	"github.com/lumenlab/kaleido/internal/mirror"
	"github.com/lumenlab/kaleido/internal/modulation"
)

// ArgumentError reports invalid run parameters. The orchestrator is left
// unconsumed; the caller may retry with corrected values.
type ArgumentError struct {
	// Name is the offending parameter ("steps" or "dt").
	Name string

	// Reason explains the constraint that was violated.
	Reason string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// IsArgumentError returns true if err is (or wraps) an *ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// Orchestrator runs one fixed-step simulation over one asset source.
//
// Each instance is single-use: Run consumes it regardless of outcome,
// and a second Run fails with a lifecycle error. Fresh runs use fresh
// instances, which is what makes re-run determinism checkable.
type Orchestrator struct {
	lc        agent.Lifecycle
	cfg       *config.Agent
	clock     *Clock
	tokens    TokenGenerator
	observers []mirror.Observer
	logger    *slog.Logger
}

// Option configures an orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger, which is also handed down
// to the agents it constructs. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTokenGenerator overrides session-token generation. Defaults to
// UUIDv7 tokens; scenarios install a FixedTokenGenerator for golden
// comparison.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(o *Orchestrator) {
		o.tokens = gen
	}
}

// WithObserver registers an observer on the run's mirror. Observers see
// every mirror broadcast in registration order.
func WithObserver(obs mirror.Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// New creates an orchestrator bound to an asset file path.
func New(source string, opts ...Option) *Orchestrator {
	return newOrchestrator(config.New(source), opts)
}

// NewFromBytes creates an orchestrator bound to in-memory asset bytes.
func NewFromBytes(source string, raw []byte, opts ...Option) *Orchestrator {
	return newOrchestrator(config.NewFromBytes(source, raw), opts)
}

func newOrchestrator(cfg *config.Agent, opts []Option) *Orchestrator {
	o := &Orchestrator{
		lc:     agent.NewLifecycle("orchestration"),
		cfg:    cfg,
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Lifecycle returns the orchestrator's current lifecycle state.
func (o *Orchestrator) Lifecycle() agent.State {
	return o.lc.State()
}

// Run executes the fixed-step simulation loop.
//
// steps must be non-negative and dt strictly positive; violations fail
// with *ArgumentError before the orchestrator is consumed. steps=0 is a
// valid run: it loads the asset, reports load-time issues, and returns
// an empty state.
//
// At step s the virtual time is s*dt. Every modulation rule is
// evaluated at that time, in declaration order, and its value written
// to the mirror under the rule's target key.
//
// A load failure returns (nil, err) before any mirror state exists. A
// rule failure mid-loop returns the partial Result together with the
// error. Observer failures accumulate in Result.Faults without
// interrupting the loop. Context cancellation is checked once per step
// and surfaces like a mid-loop failure.
func (o *Orchestrator) Run(ctx context.Context, steps int, dt float64) (*Result, error) {
	if steps < 0 {
		return nil, &ArgumentError{Name: "steps", Reason: fmt.Sprintf("must be non-negative, got %d", steps)}
	}
	if dt <= 0 {
		return nil, &ArgumentError{Name: "dt", Reason: fmt.Sprintf("must be positive, got %v", dt)}
	}
	if err := o.lc.ToStarted("run"); err != nil {
		return nil, err
	}
	defer func() {
		// Single-use: the instance is consumed no matter how the run ends.
		_ = o.lc.ToStopped("finish run")
	}()

	token := o.tokens.Generate()
	logger := o.logger.With("session", token)

	if err := o.cfg.Start(); err != nil {
		logger.Error("asset load failed", "error", err)
		return nil, err
	}
	defer o.cfg.Stop()

	loaded, err := o.cfg.Asset()
	if err != nil {
		return nil, err
	}
	issues, err := o.cfg.Issues()
	if err != nil {
		return nil, err
	}

	logger.Info("run started",
		"asset", loaded.Name,
		"steps", steps,
		"dt", dt,
		"rules", len(loaded.Modulations),
		"issues", len(issues),
	)

	mir := mirror.New(mirror.WithLogger(logger))
	if err := mir.Start(nil); err != nil {
		return nil, err
	}
	for _, obs := range o.observers {
		if err := mir.Subscribe(obs); err != nil {
			return nil, err
		}
	}

	result := &Result{
		SessionToken: token,
		AssetName:    loaded.Name,
		Issues:       issues,
		Trace:        []TraceEvent{},
		Steps:        steps,
		Dt:           dt,
	}

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return o.finish(result, mir, logger), fmt.Errorf("run canceled at step %d: %w", step, err)
		}

		t := float64(step) * dt
		for _, rule := range loaded.Modulations {
			value, err := modulation.ValueAt(rule, t)
			if err != nil {
				logger.Error("rule evaluation failed",
					"step", step,
					"time", t,
					"rule", ruleLabel(rule.ID, rule.Target),
					"error", err,
				)
				return o.finish(result, mir, logger), err
			}

			updateErr := mir.Update(rule.Target, value)
			var be *mirror.BroadcastError
			if errors.As(updateErr, &be) {
				// Observer trouble is the observer's problem, not the run's.
				result.Faults = append(result.Faults, be)
			} else if updateErr != nil {
				return o.finish(result, mir, logger), updateErr
			}

			result.Trace = append(result.Trace, TraceEvent{
				Seq:    o.clock.Next(),
				Step:   step,
				Time:   t,
				Rule:   ruleLabel(rule.ID, rule.Target),
				Target: rule.Target,
				Value:  value,
			})
		}
	}

	final := o.finish(result, mir, logger)
	logger.Info("run completed",
		"updates", len(final.Trace),
		"keys", len(final.State),
		"faults", len(final.Faults),
	)
	return final, nil
}

// finish captures the mirror's final state into the result and stops
// the mirror. Used on both the success and the partial-failure path.
func (o *Orchestrator) finish(result *Result, mir *mirror.Agent, logger *slog.Logger) *Result {
	state, err := mir.State()
	if err != nil {
		// Unreachable for a started mirror; keep the partial result usable.
		logger.Error("final state read failed", "error", err)
		state = mirror.Snapshot{}
	}
	result.State = state
	if err := mir.Stop(); err != nil {
		logger.Error("mirror stop failed", "error", err)
	}
	return result
}

// ruleLabel names a rule for traces and logs.
func ruleLabel(id, target string) string {
	if id != "" {
		return id
	}
	return target
}
