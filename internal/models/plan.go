package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscrepancyKind classifies a detected mismatch between planned
// allocation and observed consumption for one lot.
type DiscrepancyKind string

const (
	// DiscrepancyStale marks a lot with a substantial allocation but no
	// physical draw-down: the plan likely moved to a different lot.
	DiscrepancyStale DiscrepancyKind = "stale"
	// DiscrepancyGhost marks a lot with substantial consumption and no
	// recorded allocation: likely the target of an undocumented swap.
	DiscrepancyGhost DiscrepancyKind = "ghost"
	// DiscrepancyDeviation marks a lot whose consumption diverges
	// materially from its allocation.
	DiscrepancyDeviation DiscrepancyKind = "deviation"
)

// String returns the string representation of DiscrepancyKind
func (k DiscrepancyKind) String() string {
	return string(k)
}

// IsValid checks if the discrepancy kind is valid
func (k DiscrepancyKind) IsValid() bool {
	return k == DiscrepancyStale || k == DiscrepancyGhost || k == DiscrepancyDeviation
}

// Discrepancy is the classified allocation-versus-consumption signal
// attached to an update entry. A lot receives at most one per pass.
type Discrepancy struct {
	Kind        DiscrepancyKind `json:"kind"`
	Allocated   decimal.Decimal `json:"allocated"`
	Consumption decimal.Decimal `json:"consumption"`
	Difference  decimal.Decimal `json:"difference"`
}

// AddEntry describes a snapshot row with no ledger match: a lot the
// commit engine will create.
type AddEntry struct {
	YarnName  string          `json:"yarnName"`
	LotNumber string          `json:"lotNumber"`
	Quantity  decimal.Decimal `json:"quantity"`
	Location  string          `json:"location"`
}

// UpdateEntry describes a matched snapshot row whose quantity or location
// changed. Allocations references the matched lot's slice directly; the
// commit engine must persist it byte-for-byte unchanged.
type UpdateEntry struct {
	LotID       string          `json:"lotId"`
	YarnName    string          `json:"yarnName"`
	LotNumber   string          `json:"lotNumber"`
	OldQuantity decimal.Decimal `json:"oldQuantity"`
	NewQuantity decimal.Decimal `json:"newQuantity"`
	OldLocation string          `json:"oldLocation"`
	NewLocation string          `json:"newLocation"`
	Migrated    bool            `json:"migrated"`
	Allocations []Allocation    `json:"allocations"`
	Discrepancy *Discrepancy    `json:"discrepancy,omitempty"`
}

// ReconciliationPlan is the read-only aggregate of one reconciliation
// pass, presented for operator confirmation. It is discarded on cancel
// and consumed exactly once by the commit engine on confirm.
type ReconciliationPlan struct {
	Additions      []AddEntry    `json:"additions"`
	Updates        []UpdateEntry `json:"updates"`
	UnchangedCount int           `json:"unchangedCount"`
	DuplicateCount int           `json:"duplicateCount"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// IsEmpty reports whether the plan contains no writes.
func (p *ReconciliationPlan) IsEmpty() bool {
	return len(p.Additions) == 0 && len(p.Updates) == 0
}

// PlanSummary provides aggregate statistics about a reconciliation plan
type PlanSummary struct {
	Additions     int             `json:"additions"`
	Updates       int             `json:"updates"`
	Unchanged     int             `json:"unchanged"`
	Duplicates    int             `json:"duplicates"`
	MigratedLots  int             `json:"migrated_lots"`
	StaleLots     int             `json:"stale_lots"`
	GhostLots     int             `json:"ghost_lots"`
	DeviationLots int             `json:"deviation_lots"`
	TotalAddedKg  decimal.Decimal `json:"total_added_kg"`
	TotalWrites   int             `json:"total_writes"`
}

// Summary computes aggregate statistics for the plan.
func (p *ReconciliationPlan) Summary() PlanSummary {
	s := PlanSummary{
		Additions:    len(p.Additions),
		Updates:      len(p.Updates),
		Unchanged:    p.UnchangedCount,
		Duplicates:   p.DuplicateCount,
		TotalAddedKg: decimal.Zero,
		TotalWrites:  len(p.Additions) + len(p.Updates),
	}
	for _, a := range p.Additions {
		s.TotalAddedKg = s.TotalAddedKg.Add(a.Quantity)
	}
	for _, u := range p.Updates {
		if u.Migrated {
			s.MigratedLots++
		}
		if u.Discrepancy == nil {
			continue
		}
		switch u.Discrepancy.Kind {
		case DiscrepancyStale:
			s.StaleLots++
		case DiscrepancyGhost:
			s.GhostLots++
		case DiscrepancyDeviation:
			s.DeviationLots++
		}
	}
	return s
}

// YarnAllocation is one entry of an order's yarn-allocation map: the
// order-side mirror of a lot-embedded Allocation. LotID references the
// owning lot and is the join key used during allocation cleanup.
type YarnAllocation struct {
	LotID       string          `json:"lotId"`
	YarnName    string          `json:"yarnName"`
	LotNumber   string          `json:"lotNumber"`
	Quantity    decimal.Decimal `json:"quantity"`
	AllocatedAt time.Time       `json:"allocatedAt"`
}

// OrderDocument is a production order as persisted by the order-management
// subsystem. Orders are stored either as standalone documents or embedded
// in their customer's document; allocation cleanup must handle both.
type OrderDocument struct {
	ID              string                    `json:"id"`
	CustomerID      string                    `json:"customerId"`
	FabricName      string                    `json:"fabricName"`
	YarnAllocations map[string]YarnAllocation `json:"yarnAllocations"`
}

// RemoveAllocationsForLot deletes every yarn-allocation entry referencing
// the given lot and returns how many entries were removed.
func (o *OrderDocument) RemoveAllocationsForLot(lotID string) int {
	removed := 0
	for key, ya := range o.YarnAllocations {
		if ya.LotID == lotID {
			delete(o.YarnAllocations, key)
			removed++
		}
	}
	return removed
}

// CustomerDocument is a customer record that may carry its orders
// embedded rather than as standalone order documents.
type CustomerDocument struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Orders []OrderDocument `json:"orders,omitempty"`
}
