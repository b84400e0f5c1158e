// Package matcher maps parsed snapshot records onto existing ledger
// records using a tiered identity strategy.
//
// Lot identity is the tuple (yarnName, lotNumber, location), but the
// location field was added after lots already existed: legacy records
// carry the Unknown placeholder and are not unique on the full tuple.
// The index therefore holds two structures built once per pass:
//
//   - an exact map over the full normalized tuple, and
//   - a pool of legacy unknown-location lots keyed by (yarnName,
//     lotNumber).
//
// A record that misses the exact map claims one legacy lot from the
// pool (a migration match); the claimed lot is removed from the pool so
// two snapshot rows can never adopt the same physical record. Without
// the pool, every legacy lot would be re-created as a duplicate on its
// first re-import.
package matcher

import (
	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/logger"
)

// LedgerIndex indexes one in-memory ledger snapshot for resolution. It
// is built once per reconciliation pass and mutated only by pool claims.
type LedgerIndex struct {
	// AllLots preserves the load order of the snapshot.
	AllLots []*models.InventoryLot

	exact       map[string]*models.InventoryLot
	unknownPool map[string][]*models.InventoryLot

	logger logger.Logger
}

// BuildLedgerIndex builds the two-tier index over a ledger snapshot.
// Legacy lots enter the unknown pool in load order; claims pop from the
// front, so pool order decides which legacy record a row adopts when
// several could match.
func BuildLedgerIndex(lots []*models.InventoryLot) *LedgerIndex {
	idx := &LedgerIndex{
		AllLots:     lots,
		exact:       make(map[string]*models.InventoryLot, len(lots)),
		unknownPool: make(map[string][]*models.InventoryLot),
		logger:      logger.GetGlobalLogger().WithComponent("ledger_index"),
	}

	for _, lot := range lots {
		if lot.HasLocation() {
			idx.exact[models.ExactKey(lot.YarnName, lot.LotNumber, lot.Location)] = lot
		} else {
			key := models.PoolKey(lot.YarnName, lot.LotNumber)
			idx.unknownPool[key] = append(idx.unknownPool[key], lot)
		}
	}

	idx.logger.WithFields(logger.Fields{
		"lots":        len(lots),
		"exact_keys":  len(idx.exact),
		"legacy_keys": len(idx.unknownPool),
	}).Debug("Built ledger index")

	return idx
}

// LookupExact returns the lot matching the full identity tuple, if any.
func (idx *LedgerIndex) LookupExact(yarnName, lotNumber, location string) (*models.InventoryLot, bool) {
	lot, ok := idx.exact[models.ExactKey(yarnName, lotNumber, location)]
	return lot, ok
}

// ClaimLegacy pops one unknown-location lot for (yarnName, lotNumber)
// from the pool. Each legacy lot can be claimed at most once per pass.
func (idx *LedgerIndex) ClaimLegacy(yarnName, lotNumber string) (*models.InventoryLot, bool) {
	key := models.PoolKey(yarnName, lotNumber)
	pool := idx.unknownPool[key]
	if len(pool) == 0 {
		return nil, false
	}

	lot := pool[0]
	if len(pool) == 1 {
		delete(idx.unknownPool, key)
	} else {
		idx.unknownPool[key] = pool[1:]
	}
	return lot, true
}

// LegacyPoolSize returns how many unclaimed legacy lots remain for the
// given (yarnName, lotNumber).
func (idx *LedgerIndex) LegacyPoolSize(yarnName, lotNumber string) int {
	return len(idx.unknownPool[models.PoolKey(yarnName, lotNumber)])
}
