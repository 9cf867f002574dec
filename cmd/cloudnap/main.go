package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/cloudnap/cloudnap/internal/config"
	"github.com/cloudnap/cloudnap/internal/policy"
	"github.com/cloudnap/cloudnap/internal/runner"
	"github.com/cloudnap/cloudnap/internal/version"
	"github.com/cloudnap/cloudnap/pkg/aws"
	"github.com/cloudnap/cloudnap/pkg/formatter"
	"github.com/cloudnap/cloudnap/pkg/pricing"
	"github.com/cloudnap/cloudnap/pkg/utils"
)

var (
	cfgFile          string
	regions          []string
	dryRun           bool
	verbose          bool
	variant          string
	cpuThreshold     float64
	idleHours        float64
	enableMonitoring bool
	showVersion      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cloudnap",
		Short: "Stop idle EC2 instances based on CloudWatch CPU telemetry",
		Long: `cloudnap inspects all running EC2 instances, classifies each one as
idle or active from its recent CPU utilization, and stops the idle ones.
Instances tagged Shutdown=no and GPU/accelerator instance families are
never touched.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				info := version.Get()
				fmt.Printf("cloudnap version %s (built: %s, commit: %s, %s)\n",
					info.Version, info.BuildDate, info.GitCommit, info.GoVersion)
				return nil
			}

			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Path to YAML config file")
	rootCmd.Flags().StringSliceVarP(&regions, "regions", "r", nil,
		fmt.Sprintf("AWS regions to evaluate (comma separated, default: %s)", utils.GetDefaultRegion()))
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report decisions without stopping anything")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&variant, "variant", "", "Policy variant: launch-aware or simple")
	rootCmd.Flags().Float64Var(&cpuThreshold, "cpu-threshold", 0, "Idle CPU threshold percentage (variant default if unset)")
	rootCmd.Flags().Float64Var(&idleHours, "idle-hours", 0, "Required idle duration in hours (variant default if unset)")
	rootCmd.Flags().BoolVar(&enableMonitoring, "enable-monitoring", false, "Enable detailed monitoring on instances that lack it")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig layers the configuration sources: variant defaults, optional
// YAML file, environment variables, then explicitly set CLI flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if cfgFile != "" {
		if err := cfg.LoadFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	var overrides config.FlagOverrides
	if cmd.Flags().Changed("dry-run") {
		overrides.DryRun = &dryRun
	}
	if cmd.Flags().Changed("verbose") {
		overrides.Verbose = &verbose
	}
	if cmd.Flags().Changed("variant") {
		overrides.Variant = &variant
	}
	if cmd.Flags().Changed("cpu-threshold") {
		overrides.CPUThreshold = &cpuThreshold
	}
	if cmd.Flags().Changed("idle-hours") {
		overrides.IdleDurationHours = &idleHours
	}
	if cmd.Flags().Changed("enable-monitoring") {
		overrides.EnableDetailedMonitoring = &enableMonitoring
	}
	if cmd.Flags().Changed("regions") {
		overrides.Regions = regions
	}
	cfg.ApplyFlags(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run evaluates each configured region in sequence.
func run(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Verbose)

	pol, err := cfg.Policy()
	if err != nil {
		return err
	}

	evalRegions := cfg.Regions
	if len(evalRegions) == 0 {
		evalRegions = []string{aws.DetectRegion(ctx)}
	}

	var validRegions []string
	for _, region := range evalRegions {
		if utils.IsValidRegion(region) {
			validRegions = append(validRegions, region)
		} else {
			fmt.Printf("Warning: Skipping invalid region '%s'\n", region)
		}
	}
	if len(validRegions) == 0 {
		return fmt.Errorf("no valid regions specified")
	}

	var failed []string
	for _, region := range validRegions {
		if err := runRegion(ctx, cfg, pol, logger, region); err != nil {
			fmt.Printf("Error in region %s: %v\n", region, err)
			failed = append(failed, region)
		}
	}

	formatter.PrintPricingAPIStats()

	if len(failed) > 0 {
		return fmt.Errorf("evaluation failed in %s", strings.Join(failed, ", "))
	}
	return nil
}

// runRegion wires the AWS clients and runner for one region and prints the
// resulting report.
func runRegion(ctx context.Context, cfg *config.Config, pol policy.Policy, logger *slog.Logger, region string) error {
	fmt.Printf("Starting EC2 idle scan in %s ...\n", region)

	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = fmt.Sprintf(" Evaluating EC2 instances in %s ...", region)
	s.Start()

	ec2Client, err := aws.NewEC2Client(ctx, region)
	if err != nil {
		s.Stop()
		return err
	}
	cwClient, err := aws.NewCloudWatchClient(ctx, region)
	if err != nil {
		s.Stop()
		return err
	}

	r := runner.New(ec2Client, cwClient, cfg, pol, logger)
	r.SetPriceFunc(func(instanceType, region string) (float64, string) {
		cost, source := pricing.MonthlyCostWithSource(instanceType, region)
		return cost, string(source)
	})

	// The client is authoritative for the region it was built in.
	report, err := r.Run(ctx, ec2Client.Region())

	if err != nil {
		s.Stop()
		return err
	}

	s.FinalMSG = fmt.Sprintf("✓ [%d instances evaluated] EC2 idle scan finished - Completed in %.2f seconds\n",
		report.Evaluated, report.Duration.Seconds())
	s.Stop()

	if msg := pricing.GetInitMessage(); msg != "" {
		fmt.Println(msg)
	}

	formatter.PrintReportTable(report)
	formatter.PrintReportSummary(report)
	return nil
}

// newLogger builds the slog logger the runner logs decisions through.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
