package cmd

import (
	"fmt"
	"os"

	"yarn-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockledger",
	Short: "Yarn inventory reconciliation tool",
	Long: `Stockledger reconciles periodic stock-count snapshots against the
per-lot inventory ledger. It parses the warehouse xlsx export, matches
rows onto existing lots (including legacy records that predate the
location field), previews every add and update for confirmation, and
flags lots whose physical consumption disagrees with their recorded
allocations.

Examples:
  stockledger import --file stocktake.xlsx --db ledger.db
  stockledger import --file stocktake.xlsx --db ledger.db --format json --dry-run
  stockledger allocation delete --db ledger.db --lot 7f3a... --index 0`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("STOCKLEDGER")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		log, err := logger.NewLogger(&logger.Config{
			Level:  logger.DebugLevel,
			Format: logger.TextFormat,
		})
		if err == nil {
			logger.SetGlobalLogger(log)
		}
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
