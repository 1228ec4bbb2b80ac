// Package config loads one synesthetic asset description from a named
// source, validates it structurally, and derives semantic validation
// issues from the typed result.
//
// LOAD PIPELINE
//
// Start runs the full pipeline in one shot: read the source, decode and
// structurally validate through the asset schema, then walk the typed
// asset for semantic findings. Structural failures (malformed JSON,
// schema violations) are hard *LoadError failures; semantic findings
// (missing fragment code, missing uniforms, duplicate parameter names)
// are non-fatal issue strings accumulated in order.
//
// The loaded asset is immutable and owned by this agent. Stop releases
// it; the issue list stays readable for post-run reporting.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lumenlab/kaleido/internal/agent"
	"github.com/lumenlab/kaleido/internal/asset"
)

// LoadError reports a hard failure while loading an asset source: the
// file could not be read, or its contents failed structural validation.
type LoadError struct {
	// Source names the asset source that failed.
	Source string

	// Err is the underlying read or decode failure.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load asset %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying failure.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is (or wraps) a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Agent loads and owns one typed asset.
type Agent struct {
	lc     agent.Lifecycle
	source string
	read   func() ([]byte, error)
	logger *slog.Logger

	asset  *asset.Asset
	issues []string
}

// Option configures a config agent.
type Option func(*Agent)

// WithLogger sets the agent's logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// New creates a config agent bound to an asset file path. Nothing is
// read until Start.
func New(path string, opts ...Option) *Agent {
	a := &Agent{
		lc:     agent.NewLifecycle("config"),
		source: path,
		read:   func() ([]byte, error) { return os.ReadFile(path) },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromBytes creates a config agent bound to in-memory asset bytes.
// The source label appears in errors and logs.
func NewFromBytes(source string, raw []byte, opts ...Option) *Agent {
	a := New(source, opts...)
	a.read = func() ([]byte, error) { return raw, nil }
	return a
}

// Source returns the agent's source label.
func (a *Agent) Source() string {
	return a.source
}

// Lifecycle returns the agent's current lifecycle state.
func (a *Agent) Lifecycle() agent.State {
	return a.lc.State()
}

// Start loads, validates, and inspects the asset source.
//
// On failure the agent stays in the created state with no asset and no
// issues, and the returned error wraps the cause in a *LoadError.
func (a *Agent) Start() error {
	if a.lc.State() != agent.StateCreated {
		return a.lc.ToStarted("start")
	}

	raw, err := a.read()
	if err != nil {
		return &LoadError{Source: a.source, Err: err}
	}

	decoded, err := asset.Decode(a.source, raw)
	if err != nil {
		return &LoadError{Source: a.source, Err: err}
	}

	if err := a.lc.ToStarted("start"); err != nil {
		return err
	}
	a.asset = decoded
	a.issues = deriveIssues(decoded)

	a.logger.Info("asset loaded",
		"source", a.source,
		"asset", decoded.Name,
		"modulations", len(decoded.Modulations),
		"issues", len(a.issues),
	)
	return nil
}

// Asset returns the loaded asset. Only valid while started; the asset
// is released on stop.
func (a *Agent) Asset() (*asset.Asset, error) {
	if err := a.lc.Require("read asset"); err != nil {
		return nil, err
	}
	return a.asset, nil
}

// Issues returns a copy of the validation issues gathered at load time,
// in derivation order. Readable while started and after stop.
func (a *Agent) Issues() ([]string, error) {
	if a.lc.State() == agent.StateCreated {
		return nil, a.lc.Require("read issues")
	}
	out := make([]string, len(a.issues))
	copy(out, a.issues)
	return out, nil
}

// Stop releases the loaded asset and transitions to the stopped state.
func (a *Agent) Stop() error {
	if err := a.lc.ToStopped("stop"); err != nil {
		return err
	}
	a.asset = nil
	a.logger.Debug("config agent stopped", "source", a.source)
	return nil
}
