// Package reconciler orchestrates one reconciliation pass: resolving
// parsed snapshot records against an in-memory ledger snapshot,
// classifying each row as add / update / unchanged / in-file duplicate,
// annotating updates with allocation-discrepancy signals, and
// assembling the read-only plan presented for operator confirmation.
//
// A pass is single-threaded and computes everything against the ledger
// snapshot it was given: concurrent external mutations are invisible to
// a running pass by design, accepted because reconciliation is a
// human-gated, infrequent batch operation.
package reconciler

import (
	"time"

	"yarn-reconciliation-service/internal/matcher"
	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/internal/parsers"
	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"
)

// Service computes reconciliation plans. It owns no ledger connection:
// callers load the ledger snapshot and hand it in, which keeps plan
// computation pure and side-effect free.
type Service struct {
	parser   *parsers.SnapshotParser
	analyzer *AnalyzerConfig
	logger   logger.Logger
}

// NewService creates a reconciliation service.
func NewService(parserConfig *parsers.SnapshotParserConfig, analyzerConfig *AnalyzerConfig) (*Service, error) {
	parser, err := parsers.NewSnapshotParser(parserConfig)
	if err != nil {
		return nil, err
	}

	if analyzerConfig == nil {
		analyzerConfig = DefaultAnalyzerConfig()
	}
	if err := analyzerConfig.Validate(); err != nil {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "analyzer", err)
	}

	return &Service{
		parser:   parser,
		analyzer: analyzerConfig,
		logger:   logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// PlanFromFile parses the snapshot file and computes a plan against the
// given ledger snapshot. Nothing is written; the plan is free to discard.
func (s *Service) PlanFromFile(path string, lots []*models.InventoryLot) (*models.ReconciliationPlan, *parsers.ParseStats, error) {
	parsed, err := s.parser.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}

	plan := s.ComputeReconciliationPlan(parsed.Records, lots)
	return plan, &parsed.Stats, nil
}

// ComputeReconciliationPlan resolves, classifies and analyzes the parsed
// records against the ledger snapshot. It is a pure function of its
// inputs: running it twice against the same ledger and records yields
// the same plan, and running it against a ledger the plan was already
// committed to yields an empty one.
func (s *Service) ComputeReconciliationPlan(records []models.StockRecord, lots []*models.InventoryLot) *models.ReconciliationPlan {
	index := matcher.BuildLedgerIndex(lots)
	classifier := newClassifier(s.analyzer)

	plan := &models.ReconciliationPlan{
		Additions:   make([]models.AddEntry, 0),
		Updates:     make([]models.UpdateEntry, 0),
		GeneratedAt: time.Now(),
	}

	for _, record := range records {
		result := classifier.classify(record, index)

		switch result.Kind {
		case ChangeDuplicate:
			plan.DuplicateCount++
			s.logger.WithFields(logger.Fields{
				"yarn":     record.YarnName,
				"lot":      record.LotNumber,
				"location": record.Location,
				"row":      record.SourceRow,
			}).Warn("Snapshot lists the same lot twice; later row ignored")

		case ChangeUnchanged:
			plan.UnchangedCount++

		case ChangeAdd:
			plan.Additions = append(plan.Additions, *result.Add)

		case ChangeUpdate:
			entry := result.Update
			entry.Discrepancy = AnalyzeUpdate(entry, s.analyzer)
			plan.Updates = append(plan.Updates, *entry)
		}
	}

	summary := plan.Summary()
	s.logger.WithFields(logger.Fields{
		"additions":  summary.Additions,
		"updates":    summary.Updates,
		"unchanged":  summary.Unchanged,
		"duplicates": summary.Duplicates,
		"stale":      summary.StaleLots,
		"ghost":      summary.GhostLots,
		"deviation":  summary.DeviationLots,
	}).Info("Computed reconciliation plan")

	return plan
}
