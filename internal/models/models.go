// Package models defines the core domain types shared across the
// reconciliation engine: persisted ledger records, ephemeral snapshot
// records, and the reconciliation plan produced for operator review.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownLocation is the placeholder location carried by ledger records
// created before the location field existed. Records holding it are not
// unique on (yarnName, lotNumber, location) and are migrated by the
// identity resolver on their first re-import.
const UnknownLocation = "Unknown"

// Allocation is a reservation of a quantity of one lot against one
// production order. Allocations are embedded in their owning lot and are
// created by the order-allocation workflows; the reconciliation commit
// engine never touches them.
type Allocation struct {
	OrderID    string          `json:"orderId"`
	CustomerID string          `json:"customerId"`
	ClientName string          `json:"clientName"`
	FabricName string          `json:"fabricName"`
	Quantity   decimal.Decimal `json:"quantity"`
	Timestamp  time.Time       `json:"timestamp"`
}

// InventoryLot is a persisted stock record for one yarn type, one
// lot/batch number, at one storage location.
type InventoryLot struct {
	ID          string          `json:"id"`
	YarnName    string          `json:"yarnName"`
	LotNumber   string          `json:"lotNumber"`
	Quantity    decimal.Decimal `json:"quantity"`
	Location    string          `json:"location"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Allocations []Allocation    `json:"allocations"`
}

// Validate performs basic validation on the InventoryLot
func (l *InventoryLot) Validate() error {
	if strings.TrimSpace(l.YarnName) == "" {
		return fmt.Errorf("yarn name cannot be empty")
	}
	if strings.TrimSpace(l.LotNumber) == "" {
		return fmt.Errorf("lot number cannot be empty")
	}
	if l.Quantity.IsNegative() {
		return fmt.Errorf("quantity cannot be negative, got %s", l.Quantity.String())
	}
	return nil
}

// AllocatedTotal returns the sum of all allocation quantities on the lot.
func (l *InventoryLot) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.Allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// HasLocation reports whether the lot carries a real location, as opposed
// to the legacy Unknown placeholder.
func (l *InventoryLot) HasLocation() bool {
	return l.Location != "" && l.Location != UnknownLocation
}

// String returns a string representation of the InventoryLot
func (l *InventoryLot) String() string {
	return fmt.Sprintf("InventoryLot{ID: %s, Yarn: %s, Lot: %s, Qty: %s, Location: %s}",
		l.ID, l.YarnName, l.LotNumber, l.Quantity.String(), l.Location)
}

// StockRecord is one parsed snapshot row. It is ephemeral: it exists only
// within a single reconciliation pass and is never persisted.
type StockRecord struct {
	YarnName  string
	LotNumber string
	Quantity  decimal.Decimal
	Location  string

	// SourceRow is the zero-based row index in the input grid, kept for
	// operator-facing messages.
	SourceRow int
}

// Validate performs basic validation on the StockRecord
func (r *StockRecord) Validate() error {
	if strings.TrimSpace(r.YarnName) == "" {
		return fmt.Errorf("stock record yarn name cannot be empty")
	}
	if strings.TrimSpace(r.LotNumber) == "" {
		return fmt.Errorf("stock record lot number cannot be empty")
	}
	if r.Quantity.IsNegative() {
		return fmt.Errorf("stock record quantity cannot be negative, got %s", r.Quantity.String())
	}
	return nil
}

// String returns a string representation of the StockRecord
func (r *StockRecord) String() string {
	return fmt.Sprintf("StockRecord{Yarn: %s, Lot: %s, Qty: %s, Location: %s, Row: %d}",
		r.YarnName, r.LotNumber, r.Quantity.String(), r.Location, r.SourceRow)
}

// NormalizeKeyPart normalizes one component of an identity key so that
// matching is insensitive to case and stray whitespace.
func NormalizeKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExactKey builds the full identity key (yarnName, lotNumber, location)
// used for tier-one matching and in-file duplicate detection.
func ExactKey(yarnName, lotNumber, location string) string {
	return NormalizeKeyPart(yarnName) + "|" + NormalizeKeyPart(lotNumber) + "|" + NormalizeKeyPart(location)
}

// PoolKey builds the partial identity key (yarnName, lotNumber) used for
// the legacy unknown-location pool.
func PoolKey(yarnName, lotNumber string) string {
	return NormalizeKeyPart(yarnName) + "|" + NormalizeKeyPart(lotNumber)
}

// ParseQuantity parses a spreadsheet quantity cell permissively: it trims
// whitespace, drops thousand separators and a trailing kg unit. An empty
// or non-numeric cell is an error; callers treat that as a row skip, not a
// failure of the pass.
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("quantity cell is empty")
	}

	s = strings.ReplaceAll(s, ",", "")
	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "kg") {
		s = strings.TrimSpace(s[:len(s)-2])
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity '%s': %w", s, err)
	}
	return d, nil
}

// QuantitiesEqual compares two quantities under the given tolerance,
// absorbing floating-point noise from spreadsheet exports.
func QuantitiesEqual(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tolerance)
}
