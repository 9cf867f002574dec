package formatter

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cloudnap/cloudnap/internal/models"
)

// PrintReportTable prints a formatted table of per-instance outcomes.
func PrintReportTable(report *models.RunReport) {
	if len(report.Outcomes) == 0 {
		fmt.Printf("No running instances found in %s.\n", report.Region)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "Scan time: %s (completed in %.2f seconds)\n",
		report.StartedAt.Format("2006-01-02 15:04:05"),
		report.Duration.Seconds())

	fmt.Fprintln(w, "INSTANCE ID\tNAME\tTYPE\tLAUNCHED\tVERDICT\tIDLE %\tACTION\tCOST/MO\tREASON")

	for _, o := range report.Outcomes {
		launched := "unknown"
		if !o.LaunchTime.IsZero() {
			launched = humanize.Time(o.LaunchTime)
		}

		idlePct := "-"
		if o.SampleCount > 0 {
			idlePct = fmt.Sprintf("%.1f%%", o.IdleFraction*100)
		}

		monthlyCost := "-"
		if o.PricingSource != "" && o.PricingSource != "N/A" {
			monthlyCost = fmt.Sprintf("$%.2f", o.EstimatedMonthlyCost)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.InstanceID,
			instanceName(o.Name),
			o.InstanceType,
			launched,
			o.Verdict,
			idlePct,
			o.Action,
			monthlyCost,
			o.Reason,
		)
	}

	w.Flush()
}

// instanceName returns a formatted instance name or <unnamed> if empty
func instanceName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

// PrintReportSummary displays the aggregate counts for one run.
func PrintReportSummary(report *models.RunReport) {
	fmt.Println("\n## Run Summary")

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Region:\t%s\n", report.Region)
	fmt.Fprintf(w, "Evaluated:\t%d\n", report.Evaluated)
	fmt.Fprintf(w, "Skipped:\t%d\n", report.Skipped)
	fmt.Fprintf(w, "Insufficient data:\t%d\n", report.Insufficient)
	fmt.Fprintf(w, "Active:\t%d\n", report.Active)
	if report.DryRun {
		fmt.Fprintf(w, "Would stop (dry run):\t%d\n", report.Stopped)
	} else {
		fmt.Fprintf(w, "Stopped:\t%d\n", report.Stopped)
	}
	fmt.Fprintf(w, "Failed:\t%d\n", report.Failed)

	var totalSavings float64
	for _, o := range report.Outcomes {
		if o.Action == models.ActionStopped || o.Action == models.ActionWouldStop {
			totalSavings += o.EstimatedMonthlyCost
		}
	}
	if totalSavings > 0 {
		fmt.Fprintf(w, "Estimated savings:\t$%.2f/month\n", totalSavings)
	}

	w.Flush()
}
