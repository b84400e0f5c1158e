// Package config builds component configurations from CLI flag values.
package config

import (
	"yarn-reconciliation-service/internal/ledger"
	"yarn-reconciliation-service/internal/parsers"
	"yarn-reconciliation-service/internal/reconciler"
	"yarn-reconciliation-service/internal/reporter"

	"github.com/shopspring/decimal"
)

// CreateParserConfig creates a snapshot parser configuration with the
// given section prefix, falling back to the standard export layout.
func CreateParserConfig(sectionPrefix string) *parsers.SnapshotParserConfig {
	config := parsers.DefaultSnapshotParserConfig()
	if sectionPrefix != "" {
		config.SectionPrefix = sectionPrefix
	}
	return config
}

// CreateAnalyzerConfig creates discrepancy thresholds with CLI overrides
// applied on top of the standard policy values. Negative override values
// mean "keep the default".
func CreateAnalyzerConfig(absoluteFloor, untouchedCeiling, relativeShare float64) *reconciler.AnalyzerConfig {
	config := reconciler.DefaultAnalyzerConfig()

	if absoluteFloor >= 0 {
		config.AbsoluteFloorKg = decimal.NewFromFloat(absoluteFloor)
	}
	if untouchedCeiling >= 0 {
		config.UntouchedCeilingKg = decimal.NewFromFloat(untouchedCeiling)
	}
	if relativeShare >= 0 {
		config.RelativeDeviationShare = decimal.NewFromFloat(relativeShare)
	}

	return config
}

// CreateStoreConfig creates a ledger store configuration for the given
// database path.
func CreateStoreConfig(dbPath string, maxBatchSize int) *ledger.StoreConfig {
	config := ledger.DefaultStoreConfig()
	if dbPath != "" {
		config.Path = dbPath
	}
	if maxBatchSize > 0 {
		config.MaxBatchSize = maxBatchSize
	}
	return config
}

// CreateReportConfig creates a report configuration for the given format.
func CreateReportConfig(format string, maxItems int) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	if format != "" {
		config.Format = reporter.OutputFormat(format)
	}
	if maxItems > 0 {
		config.MaxItems = maxItems
	}
	return config
}
