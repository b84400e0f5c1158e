package matcher

import (
	"fmt"

	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/logger"
)

// MatchType represents how a snapshot record was resolved against the ledger
type MatchType string

const (
	// MatchExact means the full (name, lot, location) tuple matched an
	// existing lot.
	MatchExact MatchType = "exact"
	// MatchMigration means a legacy unknown-location lot was adopted;
	// the commit engine will correct its location field.
	MatchMigration MatchType = "migration"
	// MatchNone means no existing lot matches; the record is a new lot.
	MatchNone MatchType = "none"
)

// String returns the string representation of MatchType
func (t MatchType) String() string {
	return string(t)
}

// MatchResult is the outcome of resolving one snapshot record.
type MatchResult struct {
	Record models.StockRecord
	Lot    *models.InventoryLot
	Type   MatchType
}

// Matched reports whether the record resolved to an existing lot.
func (r *MatchResult) Matched() bool {
	return r.Type != MatchNone
}

// String returns a string representation of the MatchResult
func (r *MatchResult) String() string {
	if !r.Matched() {
		return fmt.Sprintf("MatchResult{%s/%s: none}", r.Record.YarnName, r.Record.LotNumber)
	}
	return fmt.Sprintf("MatchResult{%s/%s: %s -> lot %s}",
		r.Record.YarnName, r.Record.LotNumber, r.Type, r.Lot.ID)
}

// Resolve maps one snapshot record onto zero-or-one ledger lot:
// exact tuple first, then a legacy pool claim, else no match. Pool
// claims mutate the index, so resolution order across records matters
// and the index must not be shared between passes.
func (idx *LedgerIndex) Resolve(record models.StockRecord) *MatchResult {
	if lot, ok := idx.LookupExact(record.YarnName, record.LotNumber, record.Location); ok {
		return &MatchResult{Record: record, Lot: lot, Type: MatchExact}
	}

	if lot, ok := idx.ClaimLegacy(record.YarnName, record.LotNumber); ok {
		idx.logger.WithFields(logger.Fields{
			"yarn":     record.YarnName,
			"lot":      record.LotNumber,
			"location": record.Location,
			"lot_id":   lot.ID,
		}).Debug("Adopted legacy unknown-location lot")
		return &MatchResult{Record: record, Lot: lot, Type: MatchMigration}
	}

	return &MatchResult{Record: record, Type: MatchNone}
}
