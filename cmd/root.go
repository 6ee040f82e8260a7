package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/internal/checker"
	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/history"
	"github.com/huangsam/fhirgate/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = contract.DefaultConfig()

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// conformance is the checker shared by the validation commands.
var conformance contract.Checker

// historyStore is the run history store, nil until a command opens it.
var historyStore *history.Store

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "fhirgate",
	Short:              "Validate FHIR resources and gate CI pipelines on the pass rate.",
	Long:               `fhirgate validates FHIR resources against profiles, reports the findings in several formats and turns the batch pass rate into a CI verdict.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigSource()

	// Set environment variable prefix
	viper.SetEnvPrefix("FHIRGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("pattern", contract.DefaultPattern)
	viper.SetDefault("pass-threshold", contract.DefaultPassThreshold)
	viper.SetDefault("formats", []string{string(schema.JSONOut)})
	viper.SetDefault("color", "yes")
	viper.SetDefault("history-backend", string(schema.NoneBackend))
	viper.SetDefault("history-db-connect", "")
}

// setConfigSource points Viper at --config or the default .fhirgate file.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".fhirgate") // Name of config file (without extension)
	viper.SetConfigType("yaml")      // We'll use YAML format
	viper.AddConfigPath(".")         // Look in the current directory
	viper.AddConfigPath("$HOME")     // Look in the home directory
}

// loadConfigFile reads the config file when one is present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	return contract.ProcessAndValidate(cfg, input)
}

// validationSetup prepares the checker and history store on top of sharedSetup.
func validationSetup(cmd *cobra.Command, args []string) error {
	if err := sharedSetup(rootCtx, cmd, args); err != nil {
		return err
	}

	c, err := checker.NewDefault(cfg.ProfileDir)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	conformance = c

	store, err := history.NewStore(cfg.HistoryBackend, cfg.HistoryDBConnect)
	if err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	historyStore = store
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Close releases resources opened by the commands.
func Close() {
	if historyStore != nil {
		_ = historyStore.Close()
		historyStore = nil
	}
}

// exitWith closes resources and exits with code when it is non-zero.
func exitWith(code int) {
	if code == schema.ExitSuccess {
		return
	}
	Close()
	os.Exit(code)
}
