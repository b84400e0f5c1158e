// Package errors provides the application error taxonomy: categorized,
// coded errors carrying operator-facing suggestions and context, built on
// github.com/pkg/errors for stack traces.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryLedger        ErrorCategory = "ledger"
	CategoryCommit        ErrorCategory = "commit"
	CategoryAllocation    ErrorCategory = "allocation"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileFormat     ErrorCode = "file_format"

	// Parse errors
	CodeInvalidGrid     ErrorCode = "invalid_grid"
	CodeMissingSheet    ErrorCode = "missing_sheet"
	CodeInvalidQuantity ErrorCode = "invalid_quantity"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeInvalidValue ErrorCode = "invalid_value"
	CodeOutOfRange   ErrorCode = "out_of_range"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Ledger errors
	CodeLedgerRead       ErrorCode = "ledger_read_failed"
	CodeLedgerWrite      ErrorCode = "ledger_write_failed"
	CodeDocumentNotFound ErrorCode = "document_not_found"
	CodeDocumentDecode   ErrorCode = "document_decode_failed"

	// Commit errors
	CodeCommitPartial ErrorCode = "commit_partial"
	CodeEmptyPlan     ErrorCode = "empty_plan"

	// Allocation errors
	CodeAllocationIndex   ErrorCode = "allocation_index_out_of_range"
	CodeAllocationCleanup ErrorCode = "allocation_cleanup_failed"
	CodeOrderNotFound     ErrorCode = "order_not_found"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// LedgerError is the base error type for all application errors
type LedgerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *LedgerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryLedger, CategoryInternal:
		return 5
	case CategoryCommit, CategoryAllocation:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LedgerError
func New(category ErrorCategory, code ErrorCode, message string) *LedgerError {
	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with LedgerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// AsLedgerError extracts a LedgerError from an error chain, if present.
func AsLedgerError(err error) (*LedgerError, bool) {
	if err == nil {
		return nil, false
	}

	for err != nil {
		if le, ok := err.(*LedgerError); ok {
			return le, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}

	return nil, false
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("snapshot file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileFormat:
		message = fmt.Sprintf("file cannot be read as a spreadsheet: %s", path)
		suggestion = "verify the file is a valid .xlsx export; re-export the stock count and try again"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, row int, detail string, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidGrid:
		message = fmt.Sprintf("file %s does not contain a readable row grid: %s", file, detail)
		suggestion = "ensure the export has the standard layout: name, lot, quantity, location"
	case CodeMissingSheet:
		message = fmt.Sprintf("file %s has no worksheet to read: %s", file, detail)
		suggestion = "check that the workbook contains at least one sheet with data"
	case CodeInvalidQuantity:
		message = fmt.Sprintf("invalid quantity in file %s at row %d: %s", file, row, detail)
		suggestion = "correct the quantity cell or remove the row"
	default:
		message = fmt.Sprintf("parse error in file %s at row %d: %s", file, row, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", file).
		WithContext("row", row)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *LedgerError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing", field)
		suggestion = "provide a value for the required field"
	case CodeInvalidValue:
		message = fmt.Sprintf("field '%s' has invalid value '%v'", field, value)
		suggestion = "correct the value and try again"
	case CodeOutOfRange:
		message = fmt.Sprintf("field '%s' value '%v' is out of range", field, value)
		suggestion = "use a value within the allowed range"
	default:
		message = fmt.Sprintf("validation failed for field '%s'", field)
		suggestion = "check the field value"
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field)
}

// ConfigError creates a configuration-related error
func ConfigError(code ErrorCode, setting string, err error) *LedgerError {
	message := fmt.Sprintf("invalid configuration for '%s'", setting)
	if code == CodeMissingConfig {
		message = fmt.Sprintf("missing required configuration '%s'", setting)
	}

	var result *LedgerError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion("check the flag values and configuration file").
		WithContext("setting", setting)
}

// LedgerReadError creates an error for a failed ledger read
func LedgerReadError(collection string, err error) *LedgerError {
	return Wrap(err, CategoryLedger, CodeLedgerRead,
		fmt.Sprintf("failed to read %s from the ledger", collection)).
		WithSuggestion("check the ledger database path and that the file is not locked").
		WithContext("collection", collection)
}

// LedgerWriteError creates an error for a failed ledger write
func LedgerWriteError(collection string, err error) *LedgerError {
	return Wrap(err, CategoryLedger, CodeLedgerWrite,
		fmt.Sprintf("failed to write %s to the ledger", collection)).
		WithSuggestion("check the ledger database path and available disk space").
		WithContext("collection", collection)
}

// DocumentNotFoundError creates an error for a missing document
func DocumentNotFoundError(collection, id string) *LedgerError {
	return New(CategoryLedger, CodeDocumentNotFound,
		fmt.Sprintf("%s document '%s' does not exist", collection, id)).
		WithSuggestion("verify the id and that the record has not been deleted").
		WithContext("collection", collection).
		WithContext("id", id)
}

// CommitPartialError creates the error surfaced when a batch fails after
// earlier batches in the same pass were already committed. Committed
// batches are not rolled back; the suggestion tells the operator how to
// recover.
func CommitPartialError(batchesCommitted, batchesTotal int, err error) *LedgerError {
	return Wrap(err, CategoryCommit, CodeCommitPartial,
		fmt.Sprintf("commit failed after %d of %d batches were applied; the ledger is partially updated",
			batchesCommitted, batchesTotal)).
		WithSuggestion("re-run the import: already-applied rows will classify as unchanged on retry").
		WithContext("batches_committed", batchesCommitted).
		WithContext("batches_total", batchesTotal)
}

// AllocationCleanupError creates the error surfaced when the lot-side
// allocation removal succeeded but the order-side cleanup did not. The
// two copies have diverged and must be remediated manually.
func AllocationCleanupError(lotID, orderID string, err error) *LedgerError {
	var result *LedgerError
	message := fmt.Sprintf("allocation removed from lot %s but order-side cleanup failed for order %s", lotID, orderID)
	if err != nil {
		result = Wrap(err, CategoryAllocation, CodeAllocationCleanup, message)
	} else {
		result = New(CategoryAllocation, CodeAllocationCleanup, message)
	}
	return result.
		WithSuggestion("remove the matching entry from the order's yarn allocations manually; no automatic retry is attempted").
		WithContext("lot_id", lotID).
		WithContext("order_id", orderID)
}

// FormatErrorChain formats an error with its full cause chain for verbose output.
func FormatErrorChain(err error) string {
	if err == nil {
		return ""
	}

	var parts []string
	for err != nil {
		parts = append(parts, err.Error())
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}

	return strings.Join(parts, ": caused by: ")
}
