package parsers

import (
	"fmt"
	"strings"
)

// SnapshotParserConfig holds configuration for parsing a stock-count
// snapshot workbook. The defaults match the layout produced by the
// warehouse export: two header rows, then name / lot / quantity /
// optional location columns, with section rows marking a storage
// location for the rows beneath them.
type SnapshotParserConfig struct {
	// SheetName selects the worksheet to read. Empty means the first
	// sheet in the workbook.
	SheetName string

	// HeaderRows is the number of leading title/header rows to skip.
	HeaderRows int

	// SectionPrefix marks a row as a location-section header when the
	// first cell starts with it (case-insensitive). The section location
	// is the remainder of the cell after the prefix.
	SectionPrefix string

	// Column indexes into each row.
	NameColumn     int
	LotColumn      int
	QuantityColumn int
	LocationColumn int
}

// DefaultSnapshotParserConfig returns a configuration matching the
// standard stock-count export layout.
func DefaultSnapshotParserConfig() *SnapshotParserConfig {
	return &SnapshotParserConfig{
		SheetName:      "",
		HeaderRows:     2,
		SectionPrefix:  "Location:",
		NameColumn:     0,
		LotColumn:      1,
		QuantityColumn: 2,
		LocationColumn: 3,
	}
}

// Validate validates the parser configuration
func (c *SnapshotParserConfig) Validate() error {
	if c.HeaderRows < 0 {
		return fmt.Errorf("header rows cannot be negative, got %d", c.HeaderRows)
	}

	if strings.TrimSpace(c.SectionPrefix) == "" {
		return fmt.Errorf("section prefix cannot be empty")
	}

	columns := map[string]int{
		"name":     c.NameColumn,
		"lot":      c.LotColumn,
		"quantity": c.QuantityColumn,
		"location": c.LocationColumn,
	}
	seen := make(map[int]string)
	for name, idx := range columns {
		if idx < 0 {
			return fmt.Errorf("%s column index cannot be negative, got %d", name, idx)
		}
		if other, dup := seen[idx]; dup {
			return fmt.Errorf("%s and %s columns both use index %d", other, name, idx)
		}
		seen[idx] = name
	}

	return nil
}

// sectionLocation extracts the location from a section-header cell, or
// returns false when the cell is not a section marker.
func (c *SnapshotParserConfig) sectionLocation(cell string) (string, bool) {
	trimmed := strings.TrimSpace(cell)
	if len(trimmed) < len(c.SectionPrefix) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(c.SectionPrefix)], c.SectionPrefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(c.SectionPrefix):]), true
}
