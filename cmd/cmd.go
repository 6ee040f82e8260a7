// Package cmd defines the command-line interface for fhirgate.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(validateDirectoryCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().StringSlice("profiles", nil, "Profile URLs to validate against (defaults to the base profile of each resource type)")
	rootCmd.PersistentFlags().String("profile-dir", "", "Directory with extra profile definitions (YAML rules or StructureDefinition JSON)")
	rootCmd.PersistentFlags().StringSlice("formats", []string{string(schema.JSONOut)}, "Report formats: json or csv or text or html or parquet")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Directory to write report files to (no files when empty)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print every issue in the narrative")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("normalize", false, "Normalize vendor values before checking")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress the narrative and progress output")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of validateCmd to Viper
	validateCmd.Flags().String("resource", "", "Path to the resource file to validate")
	if err := viper.BindPFlags(validateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding validate flags", err)
	}

	// Bind all flags of validateDirectoryCmd to Viper
	validateDirectoryCmd.Flags().String("directory", "", "Directory to scan recursively")
	validateDirectoryCmd.Flags().String("pattern", contract.DefaultPattern, "File name glob for resources to validate")
	validateDirectoryCmd.Flags().Float64("pass-threshold", contract.DefaultPassThreshold, "Minimum pass rate in percent for the batch to succeed")
	validateDirectoryCmd.Flags().String("batch-name", "", "Name recorded for the batch (defaults to the directory name)")
	if err := viper.BindPFlags(validateDirectoryCmd.Flags()); err != nil {
		contract.LogFatal("Error binding validate-directory flags", err)
	}

	// Bind all flags of normalizeCmd to Viper
	normalizeCmd.Flags().String("kind", "", "Kind of value: date or gender or status or phone or email or postal or numeric")
	normalizeCmd.Flags().String("value", "", "The raw vendor value")
	normalizeCmd.Flags().String("country", "", "Country for postal codes (e.g. US, CA)")
	if err := viper.BindPFlags(normalizeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding normalize flags", err)
	}

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().Int("limit", 10, "Number of runs to list (0 lists all)")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}

	// Bind all flags of historyExportCmd to Viper
	historyExportCmd.Flags().String("output-file", "", "Prefix for the exported Parquet files")
	if err := viper.BindPFlags(historyExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history export flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
