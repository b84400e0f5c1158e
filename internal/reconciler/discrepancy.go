package reconciler

import (
	"fmt"

	"yarn-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// AnalyzerConfig holds the policy thresholds for discrepancy
// classification. The values are operational policy, not derived
// constants: they are exposed here so they can be tuned per site
// without code changes.
type AnalyzerConfig struct {
	// AbsoluteFloorKg is the shared significance floor (kg): an
	// allocation only makes a lot stale above it, consumption only makes
	// a lot a ghost above it, and a plan/reality difference only counts
	// as a deviation above it.
	AbsoluteFloorKg decimal.Decimal

	// UntouchedCeilingKg: consumption below this (kg) counts as
	// "nothing physically drawn".
	UntouchedCeilingKg decimal.Decimal

	// RelativeDeviationShare: a deviation must also exceed this share
	// of the allocation total (0.2 means 20%).
	RelativeDeviationShare decimal.Decimal

	// QuantityToleranceKg: quantity differences below this (kg) are
	// treated as equal, absorbing floating-point noise from the export.
	QuantityToleranceKg decimal.Decimal
}

// DefaultAnalyzerConfig returns the standard policy thresholds.
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		AbsoluteFloorKg:        decimal.NewFromInt(10),
		UntouchedCeilingKg:     decimal.NewFromInt(2),
		RelativeDeviationShare: decimal.NewFromFloat(0.2),
		QuantityToleranceKg:    decimal.NewFromFloat(0.01),
	}
}

// Validate validates the analyzer configuration
func (c *AnalyzerConfig) Validate() error {
	if c.AbsoluteFloorKg.IsNegative() {
		return fmt.Errorf("absolute floor cannot be negative, got %s", c.AbsoluteFloorKg)
	}
	if c.UntouchedCeilingKg.IsNegative() {
		return fmt.Errorf("untouched ceiling cannot be negative, got %s", c.UntouchedCeilingKg)
	}
	if c.RelativeDeviationShare.IsNegative() || c.RelativeDeviationShare.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("relative deviation share must be between 0 and 1, got %s", c.RelativeDeviationShare)
	}
	if !c.QuantityToleranceKg.IsPositive() {
		return fmt.Errorf("quantity tolerance must be positive, got %s", c.QuantityToleranceKg)
	}
	return nil
}

// AnalyzeUpdate derives the discrepancy classification for one update
// entry, or nil when plan and reality agree within tolerance.
//
// The signal compares the recorded production plan (the allocation
// total) against the observed physical draw-down (the quantity delta).
// Consumption is floored at zero: a stock increase is a correction or
// return, and an over-consumption signal does not apply to restocking.
// Rules are evaluated in order and the first match wins, so a lot gets
// at most one classification per pass:
//
//  1. stale: a plan exists but nothing was drawn; the machine likely
//     ran a different lot.
//  2. ghost: stock was consumed with no plan at all; likely the target
//     of the undocumented swap. A lot without allocation entries sums to
//     zero and lands here, which is the common shape for a swap target.
//  3. deviation: the plan was partially followed but diverges by more
//     than the absolute floor and the relative share.
func AnalyzeUpdate(entry *models.UpdateEntry, config *AnalyzerConfig) *models.Discrepancy {
	allocated := decimal.Zero
	for _, a := range entry.Allocations {
		allocated = allocated.Add(a.Quantity)
	}

	consumption := entry.OldQuantity.Sub(entry.NewQuantity)
	if consumption.IsNegative() {
		consumption = decimal.Zero
	}

	difference := allocated.Sub(consumption).Abs()

	switch {
	case allocated.GreaterThan(config.AbsoluteFloorKg) &&
		consumption.LessThan(config.UntouchedCeilingKg):
		return &models.Discrepancy{
			Kind:        models.DiscrepancyStale,
			Allocated:   allocated,
			Consumption: consumption,
			Difference:  difference,
		}

	case allocated.IsZero() &&
		consumption.GreaterThan(config.AbsoluteFloorKg):
		return &models.Discrepancy{
			Kind:        models.DiscrepancyGhost,
			Allocated:   allocated,
			Consumption: consumption,
			Difference:  difference,
		}

	case allocated.IsPositive() &&
		difference.GreaterThan(config.AbsoluteFloorKg) &&
		difference.GreaterThan(allocated.Mul(config.RelativeDeviationShare)):
		return &models.Discrepancy{
			Kind:        models.DiscrepancyDeviation,
			Allocated:   allocated,
			Consumption: consumption,
			Difference:  difference,
		}
	}

	return nil
}
