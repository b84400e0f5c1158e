package reconciler

import (
	"yarn-reconciliation-service/internal/matcher"
	"yarn-reconciliation-service/internal/models"
)

// ChangeKind represents what a snapshot record means for the ledger
type ChangeKind string

const (
	// ChangeAdd means no existing lot matches; a new lot will be created.
	ChangeAdd ChangeKind = "add"
	// ChangeUpdate means quantity or location changed on a matched lot.
	ChangeUpdate ChangeKind = "update"
	// ChangeUnchanged means the matched lot already agrees with the row.
	ChangeUnchanged ChangeKind = "unchanged"
	// ChangeDuplicate means the row repeats an identity key already seen
	// earlier in the same file.
	ChangeDuplicate ChangeKind = "duplicate"
)

// String returns the string representation of ChangeKind
func (k ChangeKind) String() string {
	return string(k)
}

// classification is the outcome of classifying one resolved record.
type classification struct {
	Kind   ChangeKind
	Add    *models.AddEntry
	Update *models.UpdateEntry
}

// classifier tracks in-file duplicate state across one pass.
type classifier struct {
	config *AnalyzerConfig
	seen   map[string]bool
}

func newClassifier(config *AnalyzerConfig) *classifier {
	return &classifier{
		config: config,
		seen:   make(map[string]bool),
	}
}

// classify decides what one snapshot record means for the ledger. The
// duplicate check runs before resolution so a repeated row cannot claim
// a second legacy lot or shadow an earlier row's update.
func (c *classifier) classify(record models.StockRecord, index *matcher.LedgerIndex) classification {
	key := models.ExactKey(record.YarnName, record.LotNumber, record.Location)
	if c.seen[key] {
		return classification{Kind: ChangeDuplicate}
	}
	c.seen[key] = true

	match := index.Resolve(record)
	if !match.Matched() {
		return classification{
			Kind: ChangeAdd,
			Add: &models.AddEntry{
				YarnName:  record.YarnName,
				LotNumber: record.LotNumber,
				Quantity:  record.Quantity,
				Location:  record.Location,
			},
		}
	}

	lot := match.Lot
	quantityChanged := !models.QuantitiesEqual(lot.Quantity, record.Quantity, c.config.QuantityToleranceKg)
	// Same normalization as the identity keys, so an exact-tier match can
	// never report a location change that is only casing or whitespace.
	locationChanged := models.NormalizeKeyPart(lot.Location) != models.NormalizeKeyPart(record.Location)

	if !quantityChanged && !locationChanged {
		return classification{Kind: ChangeUnchanged}
	}

	return classification{
		Kind: ChangeUpdate,
		Update: &models.UpdateEntry{
			LotID:       lot.ID,
			YarnName:    lot.YarnName,
			LotNumber:   lot.LotNumber,
			OldQuantity: lot.Quantity,
			NewQuantity: record.Quantity,
			OldLocation: lot.Location,
			NewLocation: record.Location,
			Migrated:    match.Type == matcher.MatchMigration,
			Allocations: lot.Allocations,
		},
	}
}
