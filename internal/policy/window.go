package policy

import "time"

// Window is the time range and cadence of telemetry to request for one
// instance. Recomputed on every evaluation, never persisted.
type Window struct {
	Start  time.Time
	End    time.Time
	Period time.Duration
}

// BuildWindow computes the evaluation window for an instance launched at
// launch, as of now. ok is false when the instance is too young to evaluate;
// the caller must treat that as insufficient data and make no telemetry call.
func (p Policy) BuildWindow(launch, now time.Time) (w Window, ok bool) {
	w = Window{
		Start:  now.Add(-p.IdleDuration),
		End:    now,
		Period: p.Period,
	}

	if p.Variant == VariantSimple {
		return w, true
	}

	// No launch time means no way to judge metric coverage.
	if launch.IsZero() {
		return Window{}, false
	}

	// Instances need the full idle duration plus a buffer of runtime
	// before their metrics are trustworthy.
	if now.Sub(launch) < p.IdleDuration+p.LaunchBuffer {
		return Window{}, false
	}

	// Never reach before the instance existed.
	if launch.After(w.Start) {
		w.Start = launch
	}

	return w, true
}
