package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudnap/cloudnap/internal/policy"
)

func TestDefaultPolicy(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if p.Variant != policy.VariantLaunchAware {
		t.Errorf("default variant = %s, want launch-aware", p.Variant)
	}
	if p.CPUThreshold != 1.0 {
		t.Errorf("default threshold = %.1f, want 1.0", p.CPUThreshold)
	}
	if p.IdleDuration != 3*time.Hour {
		t.Errorf("default idle duration = %v, want 3h", p.IdleDuration)
	}
}

func TestPolicyOverrides(t *testing.T) {
	cfg := Default()
	cfg.Variant = string(policy.VariantSimple)
	cfg.CPUThreshold = 5.0
	cfg.IdleDurationHours = 6

	p, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if p.Variant != policy.VariantSimple {
		t.Errorf("variant = %s, want simple", p.Variant)
	}
	if p.CPUThreshold != 5.0 {
		t.Errorf("threshold = %.1f, want override 5.0", p.CPUThreshold)
	}
	if p.IdleDuration != 6*time.Hour {
		t.Errorf("idle duration = %v, want 6h", p.IdleDuration)
	}
	// Untouched knobs keep the variant default.
	if p.IdleFraction != 0.9 {
		t.Errorf("idle fraction = %.2f, want simple default 0.9", p.IdleFraction)
	}
}

func TestPolicyUnknownVariant(t *testing.T) {
	cfg := Default()
	cfg.Variant = "aggressive"
	if _, err := cfg.Policy(); err == nil {
		t.Error("expected error for unknown variant")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown variant")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `variant: simple
cpuThreshold: 10.0
dryRun: true
excludedFamilies: [p, g, inf]
monitoringWarmupSeconds: 5
regions: [us-east-1, ap-northeast-2]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if !cfg.DryRun {
		t.Error("dryRun not loaded")
	}
	if len(cfg.ExcludedFamilies) != 3 {
		t.Errorf("excludedFamilies = %v, want 3 entries", cfg.ExcludedFamilies)
	}
	if cfg.MonitoringWarmup() != 5*time.Second {
		t.Errorf("warmup = %v, want 5s", cfg.MonitoringWarmup())
	}
	if len(cfg.Regions) != 2 {
		t.Errorf("regions = %v, want 2 entries", cfg.Regions)
	}
}

func TestLoadFileUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("cpuTreshold: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err == nil {
		t.Error("expected error for misspelled key")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DRY_RUN", "TRUE")
	t.Setenv("ENABLE_DETAILED_MONITORING", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CPU_THRESHOLD", "2.5")
	t.Setenv("IDLE_DURATION_HOURS", "4")
	t.Setenv("EXCLUDED_INSTANCE_TYPES", "p, g,trn")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if !cfg.DryRun || !cfg.EnableDetailedMonitoring || !cfg.Verbose {
		t.Error("bool env overrides not applied")
	}
	if cfg.CPUThreshold != 2.5 {
		t.Errorf("CPU_THRESHOLD = %.1f, want 2.5", cfg.CPUThreshold)
	}
	if cfg.IdleDurationHours != 4 {
		t.Errorf("IDLE_DURATION_HOURS = %.1f, want 4", cfg.IdleDurationHours)
	}
	if len(cfg.ExcludedFamilies) != 3 || cfg.ExcludedFamilies[2] != "trn" {
		t.Errorf("EXCLUDED_INSTANCE_TYPES = %v", cfg.ExcludedFamilies)
	}
}

func TestApplyFlags(t *testing.T) {
	threshold := 0.5
	dry := true

	cfg := Default()
	cfg.ApplyFlags(FlagOverrides{
		CPUThreshold: &threshold,
		DryRun:       &dry,
		Regions:      []string{"eu-west-1"},
	})
	if cfg.CPUThreshold != 0.5 || !cfg.DryRun {
		t.Errorf("flag overrides not applied: threshold=%.1f dryRun=%v", cfg.CPUThreshold, cfg.DryRun)
	}
	if len(cfg.Regions) != 1 || cfg.Regions[0] != "eu-west-1" {
		t.Errorf("regions = %v, want [eu-west-1]", cfg.Regions)
	}

	// Nil fields leave the config untouched.
	cfg.ApplyFlags(FlagOverrides{})
	if cfg.CPUThreshold != 0.5 || !cfg.DryRun || len(cfg.Regions) != 1 {
		t.Error("empty overrides changed the config")
	}
}

// Each layer must beat the one before it: variant defaults, then the file,
// then the environment, then explicitly set flags.
func TestLayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `cpuThreshold: 5.0
idleDurationHours: 6
dryRun: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CPU_THRESHOLD", "7.5")

	cfg := Default()
	if cfg.CPUThreshold != 0 {
		t.Fatalf("default threshold = %.1f, want 0 (variant default)", cfg.CPUThreshold)
	}

	if err := cfg.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if cfg.CPUThreshold != 5.0 {
		t.Errorf("after file: threshold = %.1f, want 5.0", cfg.CPUThreshold)
	}

	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.CPUThreshold != 7.5 {
		t.Errorf("after env: threshold = %.1f, want env 7.5 over file 5.0", cfg.CPUThreshold)
	}

	threshold := 2.5
	cfg.ApplyFlags(FlagOverrides{CPUThreshold: &threshold})
	if cfg.CPUThreshold != 2.5 {
		t.Errorf("after flags: threshold = %.1f, want flag 2.5 over env 7.5", cfg.CPUThreshold)
	}

	// Keys a later layer never mentioned keep the earlier layer's value.
	if !cfg.DryRun {
		t.Error("dryRun from file lost after env and flag layers")
	}
	if cfg.IdleDurationHours != 6 {
		t.Errorf("idleDurationHours = %.1f, want file value 6", cfg.IdleDurationHours)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if p.CPUThreshold != 2.5 || p.IdleDuration != 6*time.Hour {
		t.Errorf("policy = %.1f%%/%v, want 2.5%%/6h", p.CPUThreshold, p.IdleDuration)
	}
}

func TestApplyEnvBadNumber(t *testing.T) {
	t.Setenv("CPU_THRESHOLD", "lots")
	cfg := Default()
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric CPU_THRESHOLD")
	}
}
