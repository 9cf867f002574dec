package models

import "time"

// Action describes what the runner did for one instance.
type Action string

const (
	ActionNone      Action = "none"
	ActionStopped   Action = "stopped"
	ActionWouldStop Action = "would-stop"
	ActionFailed    Action = "stop-failed"
)

// Outcome records the result of evaluating a single instance.
type Outcome struct {
	InstanceID   string
	Name         string
	InstanceType string
	Region       string
	Verdict      string
	Reason       string
	Action       Action
	SampleCount  int
	IdleFraction float64
	LaunchTime   time.Time

	// Estimated monthly on-demand cost of the instance, used to report
	// savings for stop candidates.
	EstimatedMonthlyCost float64
	PricingSource        string
}

// RunReport aggregates a full invocation. Every run produces one, even when
// no instance was touched.
type RunReport struct {
	Region    string
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool

	Evaluated    int
	Skipped      int
	Insufficient int
	Active       int
	Stopped      int
	Failed       int

	Outcomes []Outcome
}

// Add folds one outcome into the report counters.
func (r *RunReport) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Evaluated++

	switch o.Verdict {
	case "skip":
		r.Skipped++
	case "insufficient-data":
		r.Insufficient++
	case "active":
		r.Active++
	case "idle":
		switch o.Action {
		case ActionStopped, ActionWouldStop:
			r.Stopped++
		case ActionFailed:
			r.Failed++
		}
	case "error":
		r.Failed++
	}
}
