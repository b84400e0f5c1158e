package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"yarn-reconciliation-service/cmd/stockledger/config"
	"yarn-reconciliation-service/internal/ledger"
	"yarn-reconciliation-service/internal/reconciler"
	"yarn-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the import command
var (
	importFile    string
	dbPath        string
	outputFormat  string
	maxItems      int
	sectionPrefix string
	dryRun        bool
	assumeYes     bool
	maxBatchSize  int

	// Discrepancy threshold overrides; -1 keeps the policy default
	absoluteFloor    float64
	untouchedCeiling float64
	relativeShare    float64
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reconcile a stock-count snapshot against the ledger",
	Long: `Import parses a stock-count xlsx export, computes a reconciliation
plan against the current ledger, and shows it for confirmation before
anything is written.

The plan lists lots to create, lots whose quantity or location changed,
unchanged rows and in-file duplicates. Updates on lots carrying open
allocations are checked for discrepancies between the recorded
allocation and the observed consumption.

Nothing is written until the plan is confirmed. Cancelling at the
prompt (or using --dry-run) discards the plan completely.

Examples:
  # Preview and confirm interactively
  stockledger import --file stocktake.xlsx --db ledger.db

  # Preview only
  stockledger import --file stocktake.xlsx --db ledger.db --dry-run

  # Non-interactive commit, JSON preview
  stockledger import --file stocktake.xlsx --db ledger.db --format json --yes

  # Tuned discrepancy thresholds
  stockledger import --file stocktake.xlsx --db ledger.db \
    --absolute-floor 15 --untouched-ceiling 1 --relative-share 0.25`,

	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	// Required flags
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the stock-count xlsx file (required)")
	importCmd.Flags().StringVar(&dbPath, "db", "", "path to the ledger database (required)")

	// Output flags
	importCmd.Flags().StringVar(&outputFormat, "format", "console", "preview format: console, json")
	importCmd.Flags().IntVar(&maxItems, "max-items", 0, "cap preview rows per section (0 = no cap)")

	// Parsing flags
	importCmd.Flags().StringVar(&sectionPrefix, "section-prefix", "", "override the location section marker prefix")

	// Commit flags
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and show the plan without committing")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "commit without the interactive confirmation prompt")
	importCmd.Flags().IntVar(&maxBatchSize, "max-batch-size", 0, "override the per-batch write cap")

	// Discrepancy threshold flags
	importCmd.Flags().Float64Var(&absoluteFloor, "absolute-floor", -1, "significance floor in kg for discrepancy rules")
	importCmd.Flags().Float64Var(&untouchedCeiling, "untouched-ceiling", -1, "consumption in kg below which a lot counts as untouched")
	importCmd.Flags().Float64Var(&relativeShare, "relative-share", -1, "relative deviation share (0.2 = 20%)")

	// Mark required flags
	importCmd.MarkFlagRequired("file")
	importCmd.MarkFlagRequired("db")

	// Bind flags to viper
	viper.BindPFlag("file", importCmd.Flags().Lookup("file"))
	viper.BindPFlag("db", importCmd.Flags().Lookup("db"))
	viper.BindPFlag("format", importCmd.Flags().Lookup("format"))
	viper.BindPFlag("section-prefix", importCmd.Flags().Lookup("section-prefix"))
	viper.BindPFlag("max-batch-size", importCmd.Flags().Lookup("max-batch-size"))
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	if importFile == "" {
		return fmt.Errorf("file is required")
	}
	if dbPath == "" {
		return fmt.Errorf("db is required")
	}

	if _, err := os.Stat(importFile); os.IsNotExist(err) {
		return fmt.Errorf("snapshot file does not exist: %s", importFile)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid format '%s'. Valid formats: console, json", outputFormat)
	}

	if relativeShare > 1.0 {
		return fmt.Errorf("relative share must be at most 1.0, got %g", relativeShare)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()
	ctx := context.Background()

	service, err := reconciler.NewService(
		config.CreateParserConfig(sectionPrefix),
		config.CreateAnalyzerConfig(absoluteFloor, untouchedCeiling, relativeShare),
	)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	store, err := ledger.Open(config.CreateStoreConfig(dbPath, maxBatchSize))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	defer store.Close()

	// The ledger snapshot is read once; the whole pass matches against
	// this in-memory state.
	lots, err := store.ListLots(ctx)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	plan, stats, err := service.PlanFromFile(importFile, lots)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	planReporter, err := reporter.NewPlanReporter(config.CreateReportConfig(outputFormat, maxItems))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	if err := planReporter.WritePlan(plan, os.Stdout); err != nil {
		os.Exit(handler.HandleError(err))
	}

	fmt.Fprintf(os.Stderr, "\nParsed %d rows: %d data, %d section, %d skipped\n",
		stats.TotalRows, stats.DataRows, stats.SectionRows, stats.SkippedRows)

	if plan.IsEmpty() {
		fmt.Fprintln(os.Stderr, "Ledger already matches the snapshot; nothing to commit.")
		return nil
	}

	if dryRun {
		fmt.Fprintln(os.Stderr, "Dry run: plan discarded, nothing written.")
		return nil
	}

	if !assumeYes && !confirmCommit() {
		fmt.Fprintln(os.Stderr, "Cancelled: plan discarded, nothing written.")
		return nil
	}

	result, err := ledger.NewCommitter(store).CommitReconciliationPlan(ctx, plan)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	fmt.Fprintf(os.Stderr, "Committed: %d lots created, %d updated in %d batch(es).\n",
		result.LotsCreated, result.LotsUpdated, result.BatchesCommitted)
	return nil
}

// confirmCommit asks the operator to approve the previewed plan.
func confirmCommit() bool {
	fmt.Fprint(os.Stderr, "\nApply this plan to the ledger? [y/N]: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
