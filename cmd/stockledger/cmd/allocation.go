package cmd

import (
	"context"
	"fmt"
	"os"

	"yarn-reconciliation-service/cmd/stockledger/config"
	"yarn-reconciliation-service/internal/ledger"

	"github.com/spf13/cobra"
)

// Flags for the allocation commands
var (
	allocDBPath string
	allocLotID  string
	allocIndex  int
)

// allocationCmd groups allocation maintenance commands
var allocationCmd = &cobra.Command{
	Use:   "allocation",
	Short: "Maintain lot allocations",
	Long: `Allocation maintenance operates directly on the ledger, outside the
snapshot reconciliation flow.`,
}

// allocationDeleteCmd represents the allocation delete command
var allocationDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one allocation from a lot",
	Long: `Delete removes a single allocation from a lot by index and cleans up
the mirrored entry on the owning order.

The lot write and the order write are independent: if the order-side
cleanup fails after the lot was updated, the command reports the
divergence and leaves remediation to the operator. No automatic retry
is attempted.

Examples:
  stockledger allocation delete --db ledger.db --lot 7f3a2c10-... --index 0`,

	PreRunE: validateAllocationDeleteFlags,
	RunE:    runAllocationDelete,
}

func init() {
	rootCmd.AddCommand(allocationCmd)
	allocationCmd.AddCommand(allocationDeleteCmd)

	allocationDeleteCmd.Flags().StringVar(&allocDBPath, "db", "", "path to the ledger database (required)")
	allocationDeleteCmd.Flags().StringVar(&allocLotID, "lot", "", "lot id holding the allocation (required)")
	allocationDeleteCmd.Flags().IntVar(&allocIndex, "index", -1, "index of the allocation on the lot (required)")

	allocationDeleteCmd.MarkFlagRequired("db")
	allocationDeleteCmd.MarkFlagRequired("lot")
	allocationDeleteCmd.MarkFlagRequired("index")
}

func validateAllocationDeleteFlags(cmd *cobra.Command, args []string) error {
	if allocDBPath == "" {
		return fmt.Errorf("db is required")
	}
	if allocLotID == "" {
		return fmt.Errorf("lot is required")
	}
	if allocIndex < 0 {
		return fmt.Errorf("index must be zero or positive, got %d", allocIndex)
	}
	return nil
}

func runAllocationDelete(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()
	ctx := context.Background()

	store, err := ledger.Open(config.CreateStoreConfig(allocDBPath, 0))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	defer store.Close()

	if err := store.DeleteAllocation(ctx, allocLotID, allocIndex); err != nil {
		os.Exit(handler.HandleError(err))
	}

	fmt.Fprintf(os.Stderr, "Removed allocation %d from lot %s.\n", allocIndex, allocLotID)
	return nil
}
