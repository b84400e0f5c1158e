// Package parsers turns a stock-count snapshot workbook into an ordered
// sequence of normalized stock records.
//
// The input is a spreadsheet exported by the warehouse counting system:
// two title rows, then data rows of yarn name, lot number, quantity and
// an optional explicit location. Two layout quirks are resolved here:
//
//   - Section rows: a row whose first cell carries the section prefix
//     sets the storage location for the rows beneath it and resets the
//     running yarn name.
//   - Merged name cells: a data row with a blank name inherits the most
//     recently seen name within the current section.
//
// Sparse rows (missing lot, unparseable quantity, no inheritable name)
// are expected and are skipped, not treated as errors. Every input row
// produces an explicit RowResult so callers and tests can see exactly
// why a row was or was not emitted.
package parsers

import (
	"io"
	"os"
	"strings"

	"yarn-reconciliation-service/internal/models"
	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// RowOutcome discriminates what the parser did with one input row.
type RowOutcome string

const (
	// RowData means the row produced a StockRecord.
	RowData RowOutcome = "data"
	// RowSection means the row was a location-section header.
	RowSection RowOutcome = "section"
	// RowSkipped means the row was dropped; Reason says why.
	RowSkipped RowOutcome = "skipped"
)

// SkipReason explains why a row was skipped.
type SkipReason string

const (
	SkipHeader          SkipReason = "header_row"
	SkipMissingLot      SkipReason = "missing_lot_number"
	SkipInvalidQuantity SkipReason = "invalid_quantity"
	SkipNoName          SkipReason = "no_inheritable_name"
)

// RowResult is the per-row outcome of a parse pass.
type RowResult struct {
	Row     int
	Outcome RowOutcome
	Reason  SkipReason
	Section string
	Record  *models.StockRecord
}

// ParseStats summarizes one parse pass.
type ParseStats struct {
	TotalRows   int
	DataRows    int
	SectionRows int
	SkippedRows int
}

// ParseResult holds the records and per-row outcomes of one parse pass.
type ParseResult struct {
	Records []models.StockRecord
	Rows    []RowResult
	Stats   ParseStats
}

// SnapshotParser parses stock-count snapshot workbooks.
type SnapshotParser struct {
	config *SnapshotParserConfig
	logger logger.Logger
}

// NewSnapshotParser creates a new SnapshotParser with the given configuration
func NewSnapshotParser(config *SnapshotParserConfig) (*SnapshotParser, error) {
	if config == nil {
		config = DefaultSnapshotParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigError(errors.CodeInvalidConfig, "snapshot_parser", err)
	}

	return &SnapshotParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("snapshot_parser"),
	}, nil
}

// ParseFile opens an xlsx file and parses it into stock records. A file
// that cannot be read as a workbook fails the whole pass before any plan
// is produced.
func (p *SnapshotParser) ParseFile(path string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileFormat, path, err)
	}
	defer file.Close()

	return p.ParseReader(file, path)
}

// ParseReader parses an xlsx workbook from a reader. The name parameter
// is used only in error messages.
func (p *SnapshotParser) ParseReader(r io.Reader, name string) (*ParseResult, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileFormat, name, err)
	}
	defer workbook.Close()

	sheet := p.config.SheetName
	if sheet == "" {
		sheets := workbook.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError(errors.CodeMissingSheet, name, 0, "workbook contains no sheets", nil)
		}
		sheet = sheets[0]
	}

	grid, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidGrid, name, 0, "sheet '"+sheet+"'", err)
	}

	p.logger.WithFields(logger.Fields{
		"file":  name,
		"sheet": sheet,
		"rows":  len(grid),
	}).Debug("Read snapshot grid")

	return p.ParseGrid(grid), nil
}

// ParseGrid parses a raw row grid into stock records. It is a pure
// function of the grid: no side effects, restartable, and every row is
// accounted for in the result.
func (p *SnapshotParser) ParseGrid(grid [][]string) *ParseResult {
	result := &ParseResult{
		Records: make([]models.StockRecord, 0, len(grid)),
		Rows:    make([]RowResult, 0, len(grid)),
	}

	currentSection := ""
	lastName := ""

	for i, row := range grid {
		result.Stats.TotalRows++

		if i < p.config.HeaderRows {
			result.Rows = append(result.Rows, RowResult{Row: i, Outcome: RowSkipped, Reason: SkipHeader})
			result.Stats.SkippedRows++
			continue
		}

		firstCell := cellAt(row, p.config.NameColumn)
		if section, ok := p.config.sectionLocation(firstCell); ok {
			currentSection = section
			lastName = "" // a new section does not inherit names
			result.Rows = append(result.Rows, RowResult{Row: i, Outcome: RowSection, Section: section})
			result.Stats.SectionRows++
			continue
		}

		outcome := p.parseDataRow(i, row, currentSection, &lastName)
		result.Rows = append(result.Rows, outcome)
		if outcome.Outcome == RowData {
			result.Records = append(result.Records, *outcome.Record)
			result.Stats.DataRows++
		} else {
			result.Stats.SkippedRows++
		}
	}

	p.logger.WithFields(logger.Fields{
		"total":    result.Stats.TotalRows,
		"data":     result.Stats.DataRows,
		"sections": result.Stats.SectionRows,
		"skipped":  result.Stats.SkippedRows,
	}).Debug("Parsed snapshot grid")

	return result
}

// parseDataRow parses one non-section row, updating the fill-down name
// state on success.
func (p *SnapshotParser) parseDataRow(rowIdx int, row []string, section string, lastName *string) RowResult {
	lot := trimCell(cellAt(row, p.config.LotColumn))
	if lot == "" {
		return RowResult{Row: rowIdx, Outcome: RowSkipped, Reason: SkipMissingLot}
	}

	quantity, err := models.ParseQuantity(cellAt(row, p.config.QuantityColumn))
	if err != nil {
		return RowResult{Row: rowIdx, Outcome: RowSkipped, Reason: SkipInvalidQuantity}
	}

	name := trimCell(cellAt(row, p.config.NameColumn))
	if name == "" {
		// Vertically-merged cell emulation: inherit the previous name
		// seen in this section.
		name = *lastName
	}
	if name == "" {
		return RowResult{Row: rowIdx, Outcome: RowSkipped, Reason: SkipNoName}
	}
	*lastName = name

	location := trimCell(cellAt(row, p.config.LocationColumn))
	if location == "" {
		location = section
	}
	if location == "" {
		location = models.UnknownLocation
	}

	record := &models.StockRecord{
		YarnName:  name,
		LotNumber: lot,
		Quantity:  quantity,
		Location:  location,
		SourceRow: rowIdx,
	}

	return RowResult{Row: rowIdx, Outcome: RowData, Record: record}
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}
