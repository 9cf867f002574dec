package policy

import "github.com/cloudnap/cloudnap/internal/models"

// Classify applies the CPU threshold to an already-trimmed sample set.
// An empty set is insufficient data, never idle.
func (p Policy) Classify(samples []models.UtilizationSample) Verdict {
	if len(samples) == 0 {
		return VerdictInsufficientData
	}

	idleCount := 0
	for _, s := range samples {
		if s.Average <= p.CPUThreshold {
			idleCount++
		}
	}

	idleFraction := float64(idleCount) / float64(len(samples))
	if idleFraction >= p.IdleFraction {
		return VerdictIdle
	}
	return VerdictActive
}

// IdleFractionOf reports the fraction of samples at or below the threshold,
// for logging and reporting.
func (p Policy) IdleFractionOf(samples []models.UtilizationSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	idleCount := 0
	for _, s := range samples {
		if s.Average <= p.CPUThreshold {
			idleCount++
		}
	}
	return float64(idleCount) / float64(len(samples))
}

// Evaluate runs the full decision pipeline on samples already fetched for an
// instance: sufficiency check, trim, classification. Window construction is
// separate because the caller needs the window before it can fetch anything.
func (p Policy) Evaluate(samples []models.UtilizationSample) Verdict {
	trimmed, ok := p.CheckSamples(samples)
	if !ok {
		return VerdictInsufficientData
	}
	return p.Classify(trimmed)
}
