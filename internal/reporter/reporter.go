// Package reporter renders a reconciliation plan for operator review
// before anything is written: the add and update sets, per-lot change
// detail, and the allocation-discrepancy signals that warrant a closer
// look on the factory floor.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured output for programmatic consumption
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"yarn-reconciliation-service/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for plan rendering
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeUnchanged adds the unchanged count line even when zero.
	IncludeUnchanged bool `json:"include_unchanged"`

	// MaxItems caps how many add/update rows the console report lists;
	// zero means no cap.
	MaxItems int `json:"max_items"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeUnchanged: true,
		MaxItems:         0,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}
	return nil
}

// PlanReporter renders reconciliation plans.
type PlanReporter struct {
	config *ReportConfig
}

// NewPlanReporter creates a plan reporter with the given configuration
func NewPlanReporter(config *ReportConfig) (*PlanReporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &PlanReporter{config: config}, nil
}

// WritePlan renders the plan to w in the configured format.
func (r *PlanReporter) WritePlan(plan *models.ReconciliationPlan, w io.Writer) error {
	switch r.config.Format {
	case FormatJSON:
		return r.writeJSON(plan, w)
	default:
		return r.writeConsole(plan, w)
	}
}

// jsonReport is the JSON envelope for a rendered plan.
type jsonReport struct {
	Summary models.PlanSummary         `json:"summary"`
	Plan    *models.ReconciliationPlan `json:"plan"`
}

func (r *PlanReporter) writeJSON(plan *models.ReconciliationPlan, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		Summary: plan.Summary(),
		Plan:    plan,
	})
}

func (r *PlanReporter) writeConsole(plan *models.ReconciliationPlan, w io.Writer) error {
	summary := plan.Summary()

	fmt.Fprintln(w, "Reconciliation Plan")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "New lots:        %d\n", summary.Additions)
	fmt.Fprintf(w, "Updated lots:    %d", summary.Updates)
	if summary.MigratedLots > 0 {
		fmt.Fprintf(w, " (%d location migrations)", summary.MigratedLots)
	}
	fmt.Fprintln(w)
	if r.config.IncludeUnchanged || summary.Unchanged > 0 {
		fmt.Fprintf(w, "Unchanged rows:  %d\n", summary.Unchanged)
	}
	if summary.Duplicates > 0 {
		fmt.Fprintf(w, "Duplicate rows:  %d (ignored)\n", summary.Duplicates)
	}

	if len(plan.Additions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To add:")
		for i, add := range plan.Additions {
			if r.truncated(w, i, len(plan.Additions)) {
				break
			}
			fmt.Fprintf(w, "  + %s / lot %s: %s kg at %s\n",
				add.YarnName, add.LotNumber, add.Quantity.String(), add.Location)
		}
	}

	if len(plan.Updates) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "To update:")
		for i, update := range plan.Updates {
			if r.truncated(w, i, len(plan.Updates)) {
				break
			}
			fmt.Fprintf(w, "  ~ %s / lot %s: %s -> %s kg",
				update.YarnName, update.LotNumber,
				update.OldQuantity.String(), update.NewQuantity.String())
			if update.OldLocation != update.NewLocation {
				fmt.Fprintf(w, ", %s -> %s", update.OldLocation, update.NewLocation)
			}
			if update.Discrepancy != nil {
				fmt.Fprintf(w, "  [%s: allocated %s kg, consumed %s kg]",
					strings.ToUpper(update.Discrepancy.Kind.String()),
					update.Discrepancy.Allocated.String(),
					update.Discrepancy.Consumption.String())
			}
			fmt.Fprintln(w)
		}
	}

	discrepancies := summary.StaleLots + summary.GhostLots + summary.DeviationLots
	if discrepancies > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Discrepancies: %d stale, %d ghost, %d deviation\n",
			summary.StaleLots, summary.GhostLots, summary.DeviationLots)
		fmt.Fprintln(w, "Review these lots for undocumented substitutions before confirming.")
	}

	return nil
}

// truncated prints the truncation notice and reports whether the list
// should stop at item i.
func (r *PlanReporter) truncated(w io.Writer, i, total int) bool {
	if r.config.MaxItems > 0 && i >= r.config.MaxItems {
		fmt.Fprintf(w, "  ... and %d more\n", total-r.config.MaxItems)
		return true
	}
	return false
}
