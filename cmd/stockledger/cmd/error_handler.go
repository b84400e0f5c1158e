package cmd

import (
	"fmt"
	"os"

	"yarn-reconciliation-service/pkg/errors"
	"yarn-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and returns the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if ledgerErr, ok := errors.AsLedgerError(err); ok {
		return h.handleLedgerError(ledgerErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// handleLedgerError handles LedgerError with detailed context
func (h *CLIErrorHandler) handleLedgerError(err *errors.LedgerError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := h.getCategoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// getCategoryHelp returns category-specific guidance for the operator.
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return "The snapshot file could not be read. Nothing was written to the ledger."
	case errors.CategoryParse:
		return "The file was readable but its contents could not be interpreted. Nothing was written to the ledger."
	case errors.CategoryCommit:
		return "The commit stopped partway. Batches already applied remain in the ledger; re-running the import is safe because applied rows will classify as unchanged."
	case errors.CategoryAllocation:
		return "The lot and its owning order may now disagree. Check both records before retrying."
	default:
		return ""
	}
}
