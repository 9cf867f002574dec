package policy

import (
	"sort"
	"time"

	"github.com/cloudnap/cloudnap/internal/models"
)

// CheckSamples validates that a sample set is dense enough to trust and
// returns the trimmed subset to classify. ok is false when the data is
// insufficient; the caller must report insufficient-data, never idle.
//
// Samples are sorted by timestamp before any analysis, matching the
// unordered datapoints CloudWatch returns.
func (p Policy) CheckSamples(samples []models.UtilizationSample) (trimmed []models.UtilizationSample, ok bool) {
	if len(samples) == 0 {
		return nil, false
	}

	sorted := make([]models.UtilizationSample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if p.Variant == VariantSimple {
		if len(sorted) < p.MinSamples {
			return nil, false
		}
		if p.TrimTo > 0 && len(sorted) > p.TrimTo {
			sorted = sorted[len(sorted)-p.TrimTo:]
		}
		return sorted, true
	}

	expected := p.ExpectedSamples()
	minRequired := int(float64(expected) * p.MinSampleRatio)
	if len(sorted) < minRequired {
		return nil, false
	}

	// Spacings beyond GapTolerance mark holes in the telemetry. Each hole
	// contributes its excess over the normal cadence; too much total excess
	// means the series is too discontinuous to trust.
	var totalExcess time.Duration
	for i := 1; i < len(sorted); i++ {
		spacing := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
		if spacing > p.GapTolerance {
			totalExcess += spacing - p.Period
		}
	}
	if totalExcess > p.GapBudget {
		return nil, false
	}

	if len(sorted) > expected {
		sorted = sorted[len(sorted)-expected:]
	}
	return sorted, true
}
