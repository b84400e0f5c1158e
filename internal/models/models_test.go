package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain integer", "120", "120", false},
		{"decimal", "45.75", "45.75", false},
		{"surrounding whitespace", "  12.5  ", "12.5", false},
		{"thousand separator", "1,250.5", "1250.5", false},
		{"kg suffix", "80 kg", "80", false},
		{"uppercase kg suffix", "80KG", "80", false},
		{"empty cell", "", "", true},
		{"whitespace only", "   ", "", true},
		{"non-numeric", "n/a", "", true},
		{"trailing garbage", "12abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseQuantity(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) unexpected error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseQuantity(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}
}

func TestQuantitiesEqual(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.01)

	// Stored 100.004 versus reported 100.0 is floating-point noise, not
	// a change.
	if !QuantitiesEqual(decimal.NewFromFloat(100.004), decimal.NewFromFloat(100.0), tolerance) {
		t.Error("Expected 100.004 and 100.0 to be equal within tolerance")
	}

	if QuantitiesEqual(decimal.NewFromFloat(100.02), decimal.NewFromFloat(100.0), tolerance) {
		t.Error("Expected 100.02 and 100.0 to differ beyond tolerance")
	}

	// The tolerance is exclusive: a difference of exactly 0.01 is a change.
	if QuantitiesEqual(decimal.NewFromFloat(100.01), decimal.NewFromFloat(100.0), tolerance) {
		t.Error("Expected a difference of exactly the tolerance to count as changed")
	}
}

func TestExactKeyNormalization(t *testing.T) {
	a := ExactKey("Cotton 30/1", "LOT-15", "Warehouse A")
	b := ExactKey("  cotton 30/1 ", "lot-15", "WAREHOUSE A")

	if a != b {
		t.Errorf("Expected case/space-insensitive keys to match: %q vs %q", a, b)
	}

	c := ExactKey("Cotton 30/1", "LOT-15", "Warehouse B")
	if a == c {
		t.Error("Expected different locations to produce different keys")
	}
}

func TestPoolKeyIgnoresLocation(t *testing.T) {
	if PoolKey("Cotton", "L1") != PoolKey(" COTTON ", "l1") {
		t.Error("Expected pool keys to normalize name and lot")
	}
}

func TestInventoryLotAllocatedTotal(t *testing.T) {
	lot := &InventoryLot{
		ID:        "lot-1",
		YarnName:  "Cotton 30/1",
		LotNumber: "L1",
		Quantity:  decimal.NewFromInt(100),
		Location:  "Warehouse A",
		Allocations: []Allocation{
			{OrderID: "o1", Quantity: decimal.NewFromInt(30)},
			{OrderID: "o2", Quantity: decimal.NewFromFloat(12.5)},
		},
	}

	expected := decimal.NewFromFloat(42.5)
	if !lot.AllocatedTotal().Equal(expected) {
		t.Errorf("AllocatedTotal() = %s, want %s", lot.AllocatedTotal(), expected)
	}

	empty := &InventoryLot{}
	if !empty.AllocatedTotal().IsZero() {
		t.Error("Expected zero allocated total for a lot without allocations")
	}
}

func TestInventoryLotHasLocation(t *testing.T) {
	tests := []struct {
		location string
		expected bool
	}{
		{"Warehouse A", true},
		{UnknownLocation, false},
		{"", false},
	}

	for _, tt := range tests {
		lot := &InventoryLot{Location: tt.location}
		if lot.HasLocation() != tt.expected {
			t.Errorf("HasLocation() with %q = %v, want %v", tt.location, lot.HasLocation(), tt.expected)
		}
	}
}

func TestInventoryLotValidate(t *testing.T) {
	valid := &InventoryLot{
		YarnName:  "Cotton",
		LotNumber: "L1",
		Quantity:  decimal.NewFromInt(10),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid lot, got error: %v", err)
	}

	missingName := &InventoryLot{LotNumber: "L1", Quantity: decimal.NewFromInt(10)}
	if err := missingName.Validate(); err == nil {
		t.Error("Expected error for missing yarn name")
	}

	negative := &InventoryLot{YarnName: "Cotton", LotNumber: "L1", Quantity: decimal.NewFromInt(-1)}
	if err := negative.Validate(); err == nil {
		t.Error("Expected error for negative quantity")
	}
}

func TestPlanSummary(t *testing.T) {
	plan := &ReconciliationPlan{
		Additions: []AddEntry{
			{YarnName: "Cotton", LotNumber: "L1", Quantity: decimal.NewFromInt(100), Location: "A"},
			{YarnName: "Wool", LotNumber: "L2", Quantity: decimal.NewFromInt(50), Location: "B"},
		},
		Updates: []UpdateEntry{
			{LotID: "1", Migrated: true},
			{LotID: "2", Discrepancy: &Discrepancy{Kind: DiscrepancyStale}},
			{LotID: "3", Discrepancy: &Discrepancy{Kind: DiscrepancyGhost}},
			{LotID: "4", Discrepancy: &Discrepancy{Kind: DiscrepancyDeviation}},
		},
		UnchangedCount: 7,
		DuplicateCount: 1,
		GeneratedAt:    time.Now(),
	}

	summary := plan.Summary()

	if summary.Additions != 2 {
		t.Errorf("Expected 2 additions, got %d", summary.Additions)
	}
	if summary.Updates != 4 {
		t.Errorf("Expected 4 updates, got %d", summary.Updates)
	}
	if summary.Unchanged != 7 {
		t.Errorf("Expected 7 unchanged, got %d", summary.Unchanged)
	}
	if summary.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate, got %d", summary.Duplicates)
	}
	if summary.MigratedLots != 1 {
		t.Errorf("Expected 1 migrated lot, got %d", summary.MigratedLots)
	}
	if summary.StaleLots != 1 || summary.GhostLots != 1 || summary.DeviationLots != 1 {
		t.Errorf("Expected one discrepancy of each kind, got %d/%d/%d",
			summary.StaleLots, summary.GhostLots, summary.DeviationLots)
	}
	if !summary.TotalAddedKg.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected 150 kg added, got %s", summary.TotalAddedKg)
	}
	if summary.TotalWrites != 6 {
		t.Errorf("Expected 6 total writes, got %d", summary.TotalWrites)
	}
}

func TestOrderDocumentRemoveAllocationsForLot(t *testing.T) {
	order := &OrderDocument{
		ID:         "o1",
		CustomerID: "c1",
		YarnAllocations: map[string]YarnAllocation{
			"a1": {LotID: "lot-1", Quantity: decimal.NewFromInt(30)},
			"a2": {LotID: "lot-2", Quantity: decimal.NewFromInt(20)},
			"a3": {LotID: "lot-1", Quantity: decimal.NewFromInt(10)},
		},
	}

	removed := order.RemoveAllocationsForLot("lot-1")
	if removed != 2 {
		t.Errorf("Expected 2 entries removed, got %d", removed)
	}
	if len(order.YarnAllocations) != 1 {
		t.Errorf("Expected 1 entry remaining, got %d", len(order.YarnAllocations))
	}
	if _, ok := order.YarnAllocations["a2"]; !ok {
		t.Error("Expected the lot-2 entry to survive")
	}

	if order.RemoveAllocationsForLot("lot-9") != 0 {
		t.Error("Expected no removals for an unreferenced lot")
	}
}
