// Package policy implements the idle-detection decision core: eligibility
// filtering, metric window construction, sample sufficiency checks, and the
// idle classifier. Everything here is a pure function of instance metadata
// and utilization samples, so it can be tested without AWS or real clocks.
package policy

import (
	"fmt"
	"time"
)

// Verdict is the result of evaluating one instance.
type Verdict int

const (
	// VerdictSkip means the instance was never evaluated (excluded family
	// or opt-out tag).
	VerdictSkip Verdict = iota

	// VerdictInsufficientData means telemetry was missing, too sparse, or
	// too discontinuous to trust. Never treated as idle.
	VerdictInsufficientData

	// VerdictActive means the instance showed CPU activity above threshold.
	VerdictActive

	// VerdictIdle means the instance met the idle criteria and is a stop
	// candidate.
	VerdictIdle
)

func (v Verdict) String() string {
	switch v {
	case VerdictSkip:
		return "skip"
	case VerdictInsufficientData:
		return "insufficient-data"
	case VerdictActive:
		return "active"
	case VerdictIdle:
		return "idle"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Variant names a policy generation. The two generations differ in threshold,
// strictness, and window handling; deployments pick one explicitly.
type Variant string

const (
	// VariantLaunchAware is the current generation: launch-time aware
	// window, 90% sample sufficiency, gap analysis, idle only when every
	// sample is at or below the threshold.
	VariantLaunchAware Variant = "launch-aware"

	// VariantSimple is the legacy generation: fixed trailing window, at
	// least one hour of samples, idle when 90% of the last two hours of
	// samples are at or below the threshold.
	VariantSimple Variant = "simple"
)

// Policy holds every knob of the decision core. Construct one with
// LaunchAwarePolicy or SimplePolicy and override fields as needed.
type Policy struct {
	Variant Variant

	// CPUThreshold is the average-CPU percentage at or below which a
	// sample counts as idle.
	CPUThreshold float64

	// IdleDuration is how long sustained low CPU must last before an
	// instance is a stop candidate.
	IdleDuration time.Duration

	// Period is the telemetry aggregation period.
	Period time.Duration

	// IdleFraction is the fraction of samples that must be at or below
	// CPUThreshold for an idle verdict. 1.0 means all of them.
	IdleFraction float64

	// LaunchBuffer is added to IdleDuration when checking whether an
	// instance has been running long enough to evaluate at all.
	// Launch-aware variant only.
	LaunchBuffer time.Duration

	// MinSampleRatio is the fraction of the expected sample count below
	// which the data is considered insufficient. Launch-aware variant only.
	MinSampleRatio float64

	// GapTolerance is the largest consecutive-sample spacing that is not
	// counted as a gap. Launch-aware variant only.
	GapTolerance time.Duration

	// GapBudget caps the summed excess (spacing beyond Period) of all
	// recorded gaps. Launch-aware variant only.
	GapBudget time.Duration

	// MinSamples and TrimTo drive the simple variant: require at least
	// MinSamples datapoints and classify only the last TrimTo of them.
	MinSamples int
	TrimTo     int
}

// LaunchAwarePolicy returns the current-generation policy defaults.
func LaunchAwarePolicy() Policy {
	return Policy{
		Variant:        VariantLaunchAware,
		CPUThreshold:   1.0,
		IdleDuration:   3 * time.Hour,
		Period:         5 * time.Minute,
		IdleFraction:   1.0,
		LaunchBuffer:   30 * time.Minute,
		MinSampleRatio: 0.9,
		GapTolerance:   6 * time.Minute,
		GapBudget:      10 * time.Minute,
	}
}

// SimplePolicy returns the legacy-generation policy defaults.
func SimplePolicy() Policy {
	return Policy{
		Variant:      VariantSimple,
		CPUThreshold: 10.0,
		IdleDuration: 3 * time.Hour,
		Period:       5 * time.Minute,
		IdleFraction: 0.9,
		MinSamples:   12,
		TrimTo:       24,
	}
}

// ForVariant returns the default policy for a named variant.
func ForVariant(v Variant) (Policy, error) {
	switch v {
	case VariantLaunchAware:
		return LaunchAwarePolicy(), nil
	case VariantSimple:
		return SimplePolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown policy variant %q", v)
	}
}

// ExpectedSamples returns how many datapoints a full window should contain.
func (p Policy) ExpectedSamples() int {
	if p.Period <= 0 {
		return 0
	}
	return int(p.IdleDuration / p.Period)
}
