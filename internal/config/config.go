// Package config assembles the runtime configuration for cloudnap. Defaults
// come from the selected policy variant; a YAML file, environment variables,
// and CLI flags override them in that order. The result is one explicit
// object passed into each component - no module-level state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudnap/cloudnap/internal/policy"
)

// Config holds everything one invocation needs. Zero values on the policy
// override fields mean "use the variant default".
type Config struct {
	// Variant selects the policy generation: "launch-aware" or "simple".
	Variant string `yaml:"variant"`

	// CPUThreshold overrides the variant's idle CPU percentage.
	CPUThreshold float64 `yaml:"cpuThreshold"`

	// IdleDurationHours overrides the variant's idle duration.
	IdleDurationHours float64 `yaml:"idleDurationHours"`

	// IdleFraction overrides the variant's required idle sample fraction.
	IdleFraction float64 `yaml:"idleFraction"`

	// ExcludedFamilies are instance-type family prefixes never evaluated.
	ExcludedFamilies []string `yaml:"excludedFamilies"`

	// DryRun computes and reports every decision but issues no stop or
	// monitoring calls.
	DryRun bool `yaml:"dryRun"`

	// Verbose raises logging to debug level.
	Verbose bool `yaml:"verbose"`

	// EnableDetailedMonitoring turns on per-minute monitoring for
	// instances that do not have it yet, then waits for telemetry.
	EnableDetailedMonitoring bool `yaml:"enableDetailedMonitoring"`

	// MonitoringWarmupSeconds is how long to wait after enabling detailed
	// monitoring before querying metrics.
	MonitoringWarmupSeconds int `yaml:"monitoringWarmupSeconds"`

	// Regions to evaluate, processed sequentially.
	Regions []string `yaml:"regions"`
}

// Default returns the baseline configuration: launch-aware variant, GPU
// families excluded, 60s monitoring warmup.
func Default() *Config {
	return &Config{
		Variant:                 string(policy.VariantLaunchAware),
		ExcludedFamilies:        append([]string(nil), policy.DefaultExcludedFamilies...),
		MonitoringWarmupSeconds: 60,
	}
}

// LoadFile merges a YAML config file into c. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv merges environment variables into c. Variable names match the
// original deployment surface (DRY_RUN, ENABLE_DETAILED_MONITORING, ...).
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("DRY_RUN"); ok {
		c.DryRun = strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("ENABLE_DETAILED_MONITORING"); ok {
		c.EnableDetailedMonitoring = strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Verbose = strings.EqualFold(v, "DEBUG")
	}
	if v, ok := os.LookupEnv("POLICY_VARIANT"); ok {
		c.Variant = v
	}
	if v, ok := os.LookupEnv("CPU_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CPU_THRESHOLD %q: %w", v, err)
		}
		c.CPUThreshold = f
	}
	if v, ok := os.LookupEnv("IDLE_DURATION_HOURS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid IDLE_DURATION_HOURS %q: %w", v, err)
		}
		c.IdleDurationHours = f
	}
	if v, ok := os.LookupEnv("EXCLUDED_INSTANCE_TYPES"); ok {
		c.ExcludedFamilies = splitList(v)
	}
	if v, ok := os.LookupEnv("AWS_REGIONS"); ok {
		c.Regions = splitList(v)
	}
	return nil
}

// FlagOverrides carries the command-line values the user set explicitly.
// Nil fields mean the flag was not given and the config is left alone, so
// flag defaults never shadow a value from the file or the environment.
type FlagOverrides struct {
	DryRun                   *bool
	Verbose                  *bool
	Variant                  *string
	CPUThreshold             *float64
	IdleDurationHours        *float64
	EnableDetailedMonitoring *bool
	Regions                  []string
}

// ApplyFlags merges explicitly set CLI flags into c. Flags are the last
// layer: they win over the file and the environment.
func (c *Config) ApplyFlags(o FlagOverrides) {
	if o.DryRun != nil {
		c.DryRun = *o.DryRun
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
	if o.Variant != nil {
		c.Variant = *o.Variant
	}
	if o.CPUThreshold != nil {
		c.CPUThreshold = *o.CPUThreshold
	}
	if o.IdleDurationHours != nil {
		c.IdleDurationHours = *o.IdleDurationHours
	}
	if o.EnableDetailedMonitoring != nil {
		c.EnableDetailedMonitoring = *o.EnableDetailedMonitoring
	}
	if o.Regions != nil {
		c.Regions = o.Regions
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Policy builds the decision policy: variant defaults with any configured
// overrides applied on top.
func (c *Config) Policy() (policy.Policy, error) {
	p, err := policy.ForVariant(policy.Variant(c.Variant))
	if err != nil {
		return policy.Policy{}, err
	}
	if c.CPUThreshold > 0 {
		p.CPUThreshold = c.CPUThreshold
	}
	if c.IdleDurationHours > 0 {
		p.IdleDuration = time.Duration(c.IdleDurationHours * float64(time.Hour))
	}
	if c.IdleFraction > 0 {
		p.IdleFraction = c.IdleFraction
	}
	return p, nil
}

// MonitoringWarmup returns the post-enable wait as a duration.
func (c *Config) MonitoringWarmup() time.Duration {
	if c.MonitoringWarmupSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.MonitoringWarmupSeconds) * time.Second
}

// Validate rejects configurations the runner cannot act on.
func (c *Config) Validate() error {
	if _, err := policy.ForVariant(policy.Variant(c.Variant)); err != nil {
		return err
	}
	if c.CPUThreshold < 0 || c.CPUThreshold > 100 {
		return fmt.Errorf("cpuThreshold %.2f out of range [0, 100]", c.CPUThreshold)
	}
	if c.IdleFraction < 0 || c.IdleFraction > 1 {
		return fmt.Errorf("idleFraction %.2f out of range [0, 1]", c.IdleFraction)
	}
	if c.IdleDurationHours < 0 {
		return fmt.Errorf("idleDurationHours must not be negative")
	}
	return nil
}
