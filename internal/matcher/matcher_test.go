package matcher

import (
	"testing"

	"github.com/shopspring/decimal"

	"yarn-reconciliation-service/internal/models"
)

func testLot(id, name, lotNumber, location string, quantity float64) *models.InventoryLot {
	return &models.InventoryLot{
		ID:        id,
		YarnName:  name,
		LotNumber: lotNumber,
		Quantity:  decimal.NewFromFloat(quantity),
		Location:  location,
	}
}

func testRecord(name, lotNumber, location string, quantity float64) models.StockRecord {
	return models.StockRecord{
		YarnName:  name,
		LotNumber: lotNumber,
		Quantity:  decimal.NewFromFloat(quantity),
		Location:  location,
	}
}

func TestResolveExactMatch(t *testing.T) {
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("lot-1", "Cotton 30/1", "L1", "Warehouse A", 100),
	})

	result := index.Resolve(testRecord("cotton 30/1", "l1", "warehouse a", 98))

	if result.Type != MatchExact {
		t.Fatalf("Expected exact match, got %s", result.Type)
	}
	if result.Lot.ID != "lot-1" {
		t.Errorf("Expected lot-1, got %s", result.Lot.ID)
	}
}

func TestResolveExactBeatsLegacyPool(t *testing.T) {
	// When both an exact match and a legacy candidate exist, the exact
	// match wins and the legacy lot stays in the pool.
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("lot-exact", "Cotton", "L1", "Warehouse A", 100),
		testLot("lot-legacy", "Cotton", "L1", models.UnknownLocation, 100),
	})

	result := index.Resolve(testRecord("Cotton", "L1", "Warehouse A", 100))

	if result.Type != MatchExact || result.Lot.ID != "lot-exact" {
		t.Fatalf("Expected exact match to lot-exact, got %s/%v", result.Type, result.Lot)
	}
	if index.LegacyPoolSize("Cotton", "L1") != 1 {
		t.Errorf("Expected legacy lot to remain unclaimed, pool size %d",
			index.LegacyPoolSize("Cotton", "L1"))
	}
}

func TestResolveMigrationClaim(t *testing.T) {
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("lot-legacy", "Cotton", "L1", models.UnknownLocation, 100),
	})

	result := index.Resolve(testRecord("Cotton", "L1", "Warehouse B", 100))

	if result.Type != MatchMigration {
		t.Fatalf("Expected migration match, got %s", result.Type)
	}
	if result.Lot.ID != "lot-legacy" {
		t.Errorf("Expected lot-legacy, got %s", result.Lot.ID)
	}
	if index.LegacyPoolSize("Cotton", "L1") != 0 {
		t.Error("Expected the claimed lot to leave the pool")
	}
}

func TestResolveClaimsEachLegacyLotOnce(t *testing.T) {
	// Two legacy lots share (name, lot). Three records come in: the
	// first two adopt distinct lots in load order, the third is new.
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("legacy-1", "Cotton", "L1", models.UnknownLocation, 100),
		testLot("legacy-2", "Cotton", "L1", models.UnknownLocation, 60),
	})

	first := index.Resolve(testRecord("Cotton", "L1", "Warehouse A", 100))
	second := index.Resolve(testRecord("Cotton", "L1", "Warehouse B", 60))
	third := index.Resolve(testRecord("Cotton", "L1", "Warehouse C", 10))

	if first.Type != MatchMigration || first.Lot.ID != "legacy-1" {
		t.Errorf("Expected first record to claim legacy-1, got %s", first)
	}
	if second.Type != MatchMigration || second.Lot.ID != "legacy-2" {
		t.Errorf("Expected second record to claim legacy-2, got %s", second)
	}
	if third.Type != MatchNone {
		t.Errorf("Expected third record to be unmatched, got %s", third.Type)
	}
}

func TestResolveNoMatch(t *testing.T) {
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("lot-1", "Cotton", "L1", "Warehouse A", 100),
	})

	result := index.Resolve(testRecord("Wool", "L9", "Warehouse A", 10))

	if result.Type != MatchNone {
		t.Fatalf("Expected no match, got %s", result.Type)
	}
	if result.Matched() {
		t.Error("Expected Matched() to be false")
	}
}

func TestBuildLedgerIndexSeparatesTiers(t *testing.T) {
	index := BuildLedgerIndex([]*models.InventoryLot{
		testLot("lot-1", "Cotton", "L1", "Warehouse A", 100),
		testLot("lot-2", "Cotton", "L1", models.UnknownLocation, 50),
		testLot("lot-3", "Cotton", "L2", "", 25),
	})

	if _, ok := index.LookupExact("Cotton", "L1", "Warehouse A"); !ok {
		t.Error("Expected located lot in the exact tier")
	}
	if _, ok := index.LookupExact("Cotton", "L1", models.UnknownLocation); ok {
		t.Error("Expected unknown-location lot to be excluded from the exact tier")
	}
	if index.LegacyPoolSize("Cotton", "L1") != 1 {
		t.Errorf("Expected pool size 1 for Cotton/L1, got %d", index.LegacyPoolSize("Cotton", "L1"))
	}
	// Empty location counts as legacy too.
	if index.LegacyPoolSize("Cotton", "L2") != 1 {
		t.Errorf("Expected pool size 1 for Cotton/L2, got %d", index.LegacyPoolSize("Cotton", "L2"))
	}
}
