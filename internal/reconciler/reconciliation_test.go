package reconciler

import (
	"testing"

	"github.com/shopspring/decimal"

	"yarn-reconciliation-service/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(nil, nil)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return service
}

func ledgerLot(id, name, lotNumber, location string, quantity float64) *models.InventoryLot {
	return &models.InventoryLot{
		ID:          id,
		YarnName:    name,
		LotNumber:   lotNumber,
		Quantity:    decimal.NewFromFloat(quantity),
		Location:    location,
		Allocations: []models.Allocation{},
	}
}

func snapshotRecord(name, lotNumber, location string, quantity float64) models.StockRecord {
	return models.StockRecord{
		YarnName:  name,
		LotNumber: lotNumber,
		Quantity:  decimal.NewFromFloat(quantity),
		Location:  location,
	}
}

func TestComputePlanClassification(t *testing.T) {
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("lot-1", "Cotton", "L1", "Warehouse A", 100),
		ledgerLot("lot-2", "Wool", "L2", "Warehouse A", 50),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100), // unchanged
		snapshotRecord("Wool", "L2", "Warehouse A", 45),    // quantity update
		snapshotRecord("Linen", "L3", "Warehouse B", 25),   // new lot
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if len(plan.Additions) != 1 {
		t.Fatalf("Expected 1 addition, got %d", len(plan.Additions))
	}
	if plan.Additions[0].YarnName != "Linen" {
		t.Errorf("Expected Linen addition, got %s", plan.Additions[0].YarnName)
	}
	if len(plan.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(plan.Updates))
	}
	if plan.Updates[0].LotID != "lot-2" {
		t.Errorf("Expected update on lot-2, got %s", plan.Updates[0].LotID)
	}
	if plan.UnchangedCount != 1 {
		t.Errorf("Expected 1 unchanged, got %d", plan.UnchangedCount)
	}
	if plan.DuplicateCount != 0 {
		t.Errorf("Expected 0 duplicates, got %d", plan.DuplicateCount)
	}
}

func TestComputePlanIdempotence(t *testing.T) {
	// A snapshot recomputed against a ledger it was already applied to
	// produces an empty plan with every valid row unchanged.
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("lot-1", "Cotton", "L1", "Warehouse A", 100),
		ledgerLot("lot-2", "Wool", "L2", "Warehouse B", 50),
		ledgerLot("lot-3", "Linen", "L3", "Warehouse B", 25),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100),
		snapshotRecord("Wool", "L2", "Warehouse B", 50),
		snapshotRecord("Linen", "L3", "Warehouse B", 25),
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if !plan.IsEmpty() {
		t.Errorf("Expected an empty plan, got %d additions and %d updates",
			len(plan.Additions), len(plan.Updates))
	}
	if plan.UnchangedCount != len(records) {
		t.Errorf("Expected %d unchanged rows, got %d", len(records), plan.UnchangedCount)
	}
}

func TestComputePlanDuplicateRows(t *testing.T) {
	// Two rows with the same identity key: the first wins, the second is
	// counted and dropped without producing a second entry.
	service := newTestService(t)

	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100),
		snapshotRecord("Cotton", "L1", "Warehouse A", 90),
	}

	plan := service.ComputeReconciliationPlan(records, nil)

	if plan.DuplicateCount != 1 {
		t.Errorf("Expected 1 duplicate, got %d", plan.DuplicateCount)
	}
	if len(plan.Additions) != 1 {
		t.Fatalf("Expected 1 addition, got %d", len(plan.Additions))
	}
	if !plan.Additions[0].Quantity.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected the first row to win with 100, got %s", plan.Additions[0].Quantity)
	}
}

func TestComputePlanMigration(t *testing.T) {
	// A legacy unknown-location lot adopted by a located row produces a
	// location-change update flagged as migrated.
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("lot-legacy", "Cotton", "L1", models.UnknownLocation, 100),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100),
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if len(plan.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(plan.Updates))
	}
	update := plan.Updates[0]
	if !update.Migrated {
		t.Error("Expected the update to be flagged as migrated")
	}
	if update.OldLocation != models.UnknownLocation || update.NewLocation != "Warehouse A" {
		t.Errorf("Expected location %s -> Warehouse A, got %s -> %s",
			models.UnknownLocation, update.OldLocation, update.NewLocation)
	}
	if !update.OldQuantity.Equal(update.NewQuantity) {
		t.Error("Expected the quantity to be unchanged by the migration")
	}
}

func TestComputePlanQuantityTolerance(t *testing.T) {
	// Sub-tolerance drift from the export's float formatting is not a
	// change.
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("lot-1", "Cotton", "L1", "Warehouse A", 100.004),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100.0),
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if !plan.IsEmpty() || plan.UnchangedCount != 1 {
		t.Errorf("Expected the row to classify as unchanged, got %d updates",
			len(plan.Updates))
	}
}

func TestComputePlanLocationCasingIsNotAChange(t *testing.T) {
	// The stored location and the snapshot cell differ only in casing;
	// the row matched on the normalized key, so no update is produced.
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("lot-1", "Cotton", "L1", "Warehouse A", 100),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "WAREHOUSE A", 100),
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if !plan.IsEmpty() || plan.UnchangedCount != 1 {
		t.Errorf("Expected a casing-only difference to classify as unchanged, got %d updates",
			len(plan.Updates))
	}
}

func TestComputePlanCarriesAllocationsOntoUpdates(t *testing.T) {
	// Updates reference the matched lot's allocation slice so the
	// analyzer and the preview see the real allocation state.
	service := newTestService(t)

	lot := ledgerLot("lot-1", "Cotton", "L1", "Warehouse A", 100)
	lot.Allocations = []models.Allocation{
		{OrderID: "o1", Quantity: decimal.NewFromInt(50)},
	}

	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 99),
	}

	plan := service.ComputeReconciliationPlan(records, []*models.InventoryLot{lot})

	if len(plan.Updates) != 1 {
		t.Fatalf("Expected 1 update, got %d", len(plan.Updates))
	}
	update := plan.Updates[0]
	if len(update.Allocations) != 1 || update.Allocations[0].OrderID != "o1" {
		t.Fatalf("Expected the lot's allocations on the update, got %v", update.Allocations)
	}
	if update.Discrepancy == nil || update.Discrepancy.Kind != models.DiscrepancyStale {
		t.Errorf("Expected a stale discrepancy on the update, got %v", update.Discrepancy)
	}
}

func TestComputePlanDuplicateDoesNotClaimSecondLegacyLot(t *testing.T) {
	// The duplicate check runs before resolution, so a repeated row
	// cannot drain a second lot from the legacy pool.
	service := newTestService(t)

	lots := []*models.InventoryLot{
		ledgerLot("legacy-1", "Cotton", "L1", models.UnknownLocation, 100),
		ledgerLot("legacy-2", "Cotton", "L1", models.UnknownLocation, 100),
	}
	records := []models.StockRecord{
		snapshotRecord("Cotton", "L1", "Warehouse A", 100),
		snapshotRecord("Cotton", "L1", "Warehouse A", 100),
	}

	plan := service.ComputeReconciliationPlan(records, lots)

	if plan.DuplicateCount != 1 {
		t.Errorf("Expected 1 duplicate, got %d", plan.DuplicateCount)
	}
	if len(plan.Updates) != 1 {
		t.Fatalf("Expected exactly 1 update, got %d", len(plan.Updates))
	}
	if plan.Updates[0].LotID != "legacy-1" {
		t.Errorf("Expected legacy-1 to be claimed, got %s", plan.Updates[0].LotID)
	}
}
