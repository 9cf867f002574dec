// Package runner orchestrates one evaluation pass: list running instances,
// filter, fetch telemetry, classify, and stop idle instances. It is
// deliberately sequential - one instance at a time, no shared state across
// instances - and every run ends with a report, never a silent no-op.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudnap/cloudnap/internal/config"
	"github.com/cloudnap/cloudnap/internal/models"
	"github.com/cloudnap/cloudnap/internal/policy"
)

// InstanceAPI is the slice of the EC2 surface the runner needs.
type InstanceAPI interface {
	RunningInstances(ctx context.Context) ([]models.InstanceInfo, error)
	StopInstance(ctx context.Context, instanceID string) error
	EnableDetailedMonitoring(ctx context.Context, instanceID string) (models.MonitoringState, error)
}

// MetricsAPI is the slice of the CloudWatch surface the runner needs.
type MetricsAPI interface {
	CPUUtilization(ctx context.Context, instanceID string, w policy.Window) ([]models.UtilizationSample, error)
}

// PriceFunc resolves the estimated monthly on-demand cost of an instance
// type, plus the source of the estimate. Optional.
type PriceFunc func(instanceType, region string) (monthly float64, source string)

// Runner evaluates all running instances in one region.
type Runner struct {
	instances InstanceAPI
	metrics   MetricsAPI
	cfg       *config.Config
	policy    policy.Policy
	logger    *slog.Logger

	// Injectable for tests; real runs use the wall clock.
	now   func() time.Time
	sleep func(time.Duration)
	price PriceFunc
}

// New creates a Runner. The policy must come from the same config.
func New(instances InstanceAPI, metrics MetricsAPI, cfg *config.Config, pol policy.Policy, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		instances: instances,
		metrics:   metrics,
		cfg:       cfg,
		policy:    pol,
		logger:    logger,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// SetPriceFunc attaches a cost estimator used to annotate stop candidates.
func (r *Runner) SetPriceFunc(f PriceFunc) {
	r.price = f
}

// Run evaluates every running instance in sequence. Only a failure to list
// the inventory aborts the run; all per-instance failures are recorded in
// the report and the batch continues.
func (r *Runner) Run(ctx context.Context, region string) (*models.RunReport, error) {
	report := &models.RunReport{
		Region:    region,
		StartedAt: r.now(),
		DryRun:    r.cfg.DryRun,
	}

	instances, err := r.instances.RunningInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing running instances: %w", err)
	}

	r.logger.Info("starting evaluation",
		"region", region,
		"instances", len(instances),
		"variant", string(r.policy.Variant),
		"dryRun", r.cfg.DryRun)

	for _, inst := range instances {
		report.Add(r.evaluate(ctx, inst))
	}

	report.Duration = r.now().Sub(report.StartedAt)
	r.logger.Info("evaluation finished",
		"region", region,
		"evaluated", report.Evaluated,
		"skipped", report.Skipped,
		"stopped", report.Stopped,
		"failed", report.Failed)

	return report, nil
}

// evaluate runs the decision pipeline for a single instance.
func (r *Runner) evaluate(ctx context.Context, inst models.InstanceInfo) models.Outcome {
	outcome := models.Outcome{
		InstanceID:   inst.InstanceID,
		Name:         inst.Name,
		InstanceType: inst.InstanceType,
		Region:       inst.Region,
		LaunchTime:   inst.LaunchTime,
		Action:       models.ActionNone,
	}

	if reason := policy.SkipReason(inst, r.cfg.ExcludedFamilies); reason != "" {
		r.logger.Info("skipping instance", "instance", inst.InstanceID, "type", inst.InstanceType, "reason", reason)
		outcome.Verdict = policy.VerdictSkip.String()
		outcome.Reason = reason
		return outcome
	}

	if r.maybeEnableMonitoring(ctx, inst) {
		// Freshly enabled monitoring needs time before CloudWatch has
		// anything new to say.
		r.logger.Info("waiting for telemetry after enabling detailed monitoring",
			"instance", inst.InstanceID, "wait", r.cfg.MonitoringWarmup())
		r.sleep(r.cfg.MonitoringWarmup())
	}

	window, ok := r.policy.BuildWindow(inst.LaunchTime, r.now())
	if !ok {
		r.logger.Debug("instance too young to evaluate",
			"instance", inst.InstanceID, "launched", inst.LaunchTime)
		outcome.Verdict = policy.VerdictInsufficientData.String()
		outcome.Reason = "instance has not been running long enough"
		return outcome
	}

	samples, err := r.metrics.CPUUtilization(ctx, inst.InstanceID, window)
	if err != nil {
		r.logger.Error("telemetry query failed", "instance", inst.InstanceID, "error", err)
		outcome.Verdict = "error"
		outcome.Reason = fmt.Sprintf("telemetry query failed: %v", err)
		return outcome
	}

	trimmed, ok := r.policy.CheckSamples(samples)
	if !ok {
		r.logger.Info("insufficient telemetry", "instance", inst.InstanceID, "samples", len(samples))
		outcome.Verdict = policy.VerdictInsufficientData.String()
		outcome.Reason = fmt.Sprintf("telemetry too sparse or discontinuous (%d samples)", len(samples))
		outcome.SampleCount = len(samples)
		return outcome
	}

	outcome.SampleCount = len(trimmed)
	outcome.IdleFraction = r.policy.IdleFractionOf(trimmed)

	verdict := r.policy.Classify(trimmed)
	outcome.Verdict = verdict.String()

	r.logger.Info("classified instance",
		"instance", inst.InstanceID,
		"type", inst.InstanceType,
		"verdict", verdict.String(),
		"idleFraction", fmt.Sprintf("%.1f%%", outcome.IdleFraction*100),
		"samples", len(trimmed))

	if verdict != policy.VerdictIdle {
		return outcome
	}

	if r.price != nil {
		outcome.EstimatedMonthlyCost, outcome.PricingSource = r.price(inst.InstanceType, inst.Region)
	}

	return r.stop(ctx, inst, outcome)
}

// maybeEnableMonitoring enables detailed monitoring when configured and not
// already on. It reports whether the caller should wait for telemetry to
// accumulate. Enable failures degrade to "monitoring not enabled" and the
// evaluation proceeds on standard-cadence metrics.
func (r *Runner) maybeEnableMonitoring(ctx context.Context, inst models.InstanceInfo) bool {
	if !r.cfg.EnableDetailedMonitoring || inst.Monitoring != models.MonitoringDisabled {
		return false
	}

	if r.cfg.DryRun {
		r.logger.Info("dry run: would enable detailed monitoring", "instance", inst.InstanceID)
		return true
	}

	state, err := r.instances.EnableDetailedMonitoring(ctx, inst.InstanceID)
	if err != nil {
		r.logger.Warn("could not enable detailed monitoring, continuing without it",
			"instance", inst.InstanceID, "error", err)
		return false
	}

	r.logger.Info("enabled detailed monitoring", "instance", inst.InstanceID, "state", string(state))
	return true
}

// stop issues the stop action for an idle instance, or records the dry-run
// equivalent. Stop failures are recorded without aborting the batch.
func (r *Runner) stop(ctx context.Context, inst models.InstanceInfo, outcome models.Outcome) models.Outcome {
	if r.cfg.DryRun {
		r.logger.Info("dry run: would stop instance", "instance", inst.InstanceID, "type", inst.InstanceType)
		outcome.Action = models.ActionWouldStop
		outcome.Reason = "idle; would be stopped (dry run)"
		return outcome
	}

	if err := r.instances.StopInstance(ctx, inst.InstanceID); err != nil {
		r.logger.Error("stop failed", "instance", inst.InstanceID, "error", err)
		outcome.Action = models.ActionFailed
		outcome.Reason = fmt.Sprintf("stop failed: %v", err)
		return outcome
	}

	r.logger.Info("stop initiated", "instance", inst.InstanceID, "name", inst.Name, "type", inst.InstanceType)
	outcome.Action = models.ActionStopped
	outcome.Reason = "idle; stop initiated"
	return outcome
}
