// Package modulation computes deterministic LFO values for modulation
// rules.
//
// The package holds no mutable state: ValueAt is a pure function of the
// rule and the virtual time, so one evaluation path serves every rule of
// every step of every concurrent session. It never writes to a mirror -
// the orchestrator reads the computed value and performs the update.
//
// Waveform conventions (A = amplitude, f = frequency in cycles per unit
// time, phi = phase in radians, t = virtual time):
//
//	sine:     A * sin(2*pi*f*t + phi)
//	triangle: same period and phase as sine, linear ramps, range [-A, A]
//	square:   +A while sin(2*pi*f*t + phi) >= 0, else -A
//
// The raw waveform value is then shifted by the rule's offset, scaled by
// its scale factor, and clamped to [min, max] when the rule declares
// bounds. With the schema defaults (offset 0, scale 1, no bounds) the
// waveform value passes through untouched.
package modulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/lumenlab/kaleido/internal/asset"
)

// RuleErrorCode categorizes rule evaluation failures.
type RuleErrorCode string

const (
	// ErrCodeUnknownWaveform indicates a waveform kind outside
	// {sine, triangle, square}.
	ErrCodeUnknownWaveform RuleErrorCode = "UNKNOWN_WAVEFORM"

	// ErrCodeMissingTarget indicates a rule with an empty target key.
	ErrCodeMissingTarget RuleErrorCode = "MISSING_TARGET"
)

// RuleError reports a modulation rule that cannot be evaluated.
//
// Rule errors abort the remaining steps of a run but preserve whatever
// mirror state earlier updates produced; no partial write occurs for the
// failing rule itself.
type RuleError struct {
	// Code identifies the error category.
	Code RuleErrorCode

	// RuleID labels the offending rule when the asset names it.
	RuleID string

	// Target is the rule's target key (empty for ErrCodeMissingTarget).
	Target string

	// Waveform is the rule's waveform kind.
	Waveform asset.Waveform
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	label := e.RuleID
	if label == "" {
		label = "rule"
	}
	switch e.Code {
	case ErrCodeUnknownWaveform:
		return fmt.Sprintf("%s: %s: unknown waveform %q", e.Code, label, e.Waveform)
	case ErrCodeMissingTarget:
		return fmt.Sprintf("%s: %s: modulation rule has no target key", e.Code, label)
	default:
		return fmt.Sprintf("%s: %s: invalid modulation rule", e.Code, label)
	}
}

// IsRuleError returns true if err is (or wraps) a *RuleError.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// ValueAt computes the value of one modulation rule at virtual time t.
//
// Fails with *RuleError for an unknown waveform kind or a rule with no
// target key; on failure no value is produced.
func ValueAt(rule asset.Modulation, t float64) (float64, error) {
	if rule.Target == "" {
		return 0, &RuleError{Code: ErrCodeMissingTarget, RuleID: rule.ID, Waveform: rule.Waveform}
	}

	theta := 2*math.Pi*rule.Frequency*t + rule.Phase

	var raw float64
	switch rule.Waveform {
	case asset.WaveformSine:
		raw = rule.Amplitude * math.Sin(theta)
	case asset.WaveformTriangle:
		raw = rule.Amplitude * triangle(theta)
	case asset.WaveformSquare:
		if math.Sin(theta) >= 0 {
			raw = rule.Amplitude
		} else {
			raw = -rule.Amplitude
		}
	default:
		return 0, &RuleError{
			Code:     ErrCodeUnknownWaveform,
			RuleID:   rule.ID,
			Target:   rule.Target,
			Waveform: rule.Waveform,
		}
	}

	value := rule.Offset + rule.Scale*raw

	if rule.Min != nil && value < *rule.Min {
		value = *rule.Min
	}
	if rule.Max != nil && value > *rule.Max {
		value = *rule.Max
	}
	return value, nil
}

// triangle is the unit triangle wave sharing the sine's phase: 0 at
// theta=0, peaks at +1 for theta=pi/2 and -1 at theta=3*pi/2.
func triangle(theta float64) float64 {
	// Normalize to one period, with the peak-centered window shifted so
	// the ramp is linear in u.
	u := theta / (2 * math.Pi)
	u -= math.Floor(u + 0.25)
	if u <= 0.25 {
		return 4 * u
	}
	return 2 - 4*u
}
