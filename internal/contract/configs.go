package contract

import (
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/fhirgate/internal/normalize"
	"github.com/huangsam/fhirgate/schema"
)

// Default values for configuration.
const (
	DefaultPassThreshold = 95.0
	DefaultPattern       = "*.json"
	MinPassThreshold     = 0.0
	MaxPassThreshold     = 100.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultFormats is used when no output format is requested.
var DefaultFormats = []schema.OutputFormat{schema.JSONOut}

// CodeMappingRaw is one vendor token to FHIR code entry from the YAML config file.
// A list of pairs is used instead of a map so the vendor token keeps its case.
type CodeMappingRaw struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// NormalizationRawInput holds the normalization section of the YAML config file.
type NormalizationRawInput struct {
	CountryPrefix string           `mapstructure:"country-prefix"`
	DateFormats   []string         `mapstructure:"date-formats"`
	GenderMap     []CodeMappingRaw `mapstructure:"gender-map"`
	StatusMap     []CodeMappingRaw `mapstructure:"status-map"`
	MaxLengths    map[string]int   `mapstructure:"max-lengths"`
}

// Config holds the runtime configuration for a validation run.
// This struct remains the "final, validated" config.
type Config struct {
	Workers       int
	Profiles      []string
	ProfileDir    string
	Pattern       string
	PassThreshold float64
	Formats       []schema.OutputFormat
	OutputDir     string
	Verbose       bool
	Width         int // Terminal width override (0 = auto-detect)
	UseColors     bool

	Normalize     bool
	Normalization normalize.Options

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Workers          int      `mapstructure:"workers"`
	Profiles         []string `mapstructure:"profiles"`
	ProfileDir       string   `mapstructure:"profile-dir"`
	Formats          []string `mapstructure:"formats"`
	Output           string   `mapstructure:"output"`
	Verbose          bool     `mapstructure:"verbose"`
	Width            int      `mapstructure:"width"`
	Color            string   `mapstructure:"color"`
	Normalize        bool     `mapstructure:"normalize"`
	HistoryBackend   string   `mapstructure:"history-backend"`
	HistoryDBConnect string   `mapstructure:"history-db-connect"`

	// --- Fields from validateDirectoryCmd.Flags() ---
	Pattern       string  `mapstructure:"pattern"`
	PassThreshold float64 `mapstructure:"pass-threshold"`

	// --- Normalization tables from config file ---
	Normalization NormalizationRawInput `mapstructure:"normalization"`
}

// DefaultConfig returns a validated configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Workers:        DefaultWorkers,
		Pattern:        DefaultPattern,
		PassThreshold:  DefaultPassThreshold,
		Formats:        slices.Clone(DefaultFormats),
		UseColors:      true,
		Normalization:  normalize.DefaultOptions(),
		HistoryBackend: schema.NoneBackend,
	}
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Profiles = slices.Clone(c.Profiles)
	clone.Formats = slices.Clone(c.Formats)
	clone.Normalization.DateFormats = slices.Clone(c.Normalization.DateFormats)
	if c.Normalization.GenderMap != nil {
		clone.Normalization.GenderMap = maps.Clone(c.Normalization.GenderMap)
	}
	if c.Normalization.StatusMap != nil {
		clone.Normalization.StatusMap = maps.Clone(c.Normalization.StatusMap)
	}
	if c.Normalization.MaxLengths != nil {
		clone.Normalization.MaxLengths = maps.Clone(c.Normalization.MaxLengths)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	processFormats(cfg, input)
	if err := processNormalization(cfg, input); err != nil {
		return err
	}
	return validateBackendConfig(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.ProfileDir = strings.TrimSpace(input.ProfileDir)
	cfg.OutputDir = strings.TrimSpace(input.Output)
	cfg.Verbose = input.Verbose
	cfg.Width = input.Width
	cfg.Normalize = input.Normalize

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.PassThreshold < MinPassThreshold || input.PassThreshold > MaxPassThreshold {
		return fmt.Errorf("pass threshold must be between %.1f and %.1f (received %.2f)", MinPassThreshold, MaxPassThreshold, input.PassThreshold)
	}
	cfg.PassThreshold = input.PassThreshold

	cfg.Pattern = strings.TrimSpace(input.Pattern)
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern '%s': %w", cfg.Pattern, err)
	}

	cfg.Profiles = nil
	for _, p := range input.Profiles {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Profiles = append(cfg.Profiles, trimmed)
		}
	}
	return nil
}

// processFormats lowercases the requested formats and drops duplicates.
// Unknown names are kept so the report writer can skip them with a warning.
func processFormats(cfg *Config, input *ConfigRawInput) {
	cfg.Formats = nil
	seen := make(map[schema.OutputFormat]struct{}, len(input.Formats))
	for _, raw := range input.Formats {
		for part := range strings.SplitSeq(raw, ",") {
			format := schema.OutputFormat(strings.ToLower(strings.TrimSpace(part)))
			if format == "" {
				continue
			}
			if _, dup := seen[format]; dup {
				continue
			}
			seen[format] = struct{}{}
			cfg.Formats = append(cfg.Formats, format)
		}
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = slices.Clone(DefaultFormats)
	}
}

// processNormalization converts the raw normalization section into normalizer options.
func processNormalization(cfg *Config, input *ConfigRawInput) error {
	raw := input.Normalization
	opts := normalize.DefaultOptions()

	if prefix := strings.TrimSpace(raw.CountryPrefix); prefix != "" {
		if !strings.HasPrefix(prefix, "+") {
			return fmt.Errorf("country prefix must start with '+' (received %q)", prefix)
		}
		opts.CountryPrefix = prefix
	}
	if len(raw.DateFormats) > 0 {
		opts.DateFormats = slices.Clone(raw.DateFormats)
	}

	var err error
	if opts.GenderMap, err = buildCodeTable("gender-map", raw.GenderMap); err != nil {
		return err
	}
	if opts.StatusMap, err = buildCodeTable("status-map", raw.StatusMap); err != nil {
		return err
	}

	for field, limit := range raw.MaxLengths {
		if limit <= 0 {
			return fmt.Errorf("max length for field %s must be greater than 0 (received %d)", field, limit)
		}
	}
	if len(raw.MaxLengths) > 0 {
		opts.MaxLengths = maps.Clone(raw.MaxLengths)
	}

	cfg.Normalization = opts
	return nil
}

func buildCodeTable(name string, entries []CodeMappingRaw) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	table := make(map[string]string, len(entries))
	for i, entry := range entries {
		from := strings.TrimSpace(entry.From)
		to := strings.TrimSpace(entry.To)
		if from == "" || to == "" {
			return nil, fmt.Errorf("%s entry %d must define both 'from' and 'to'", name, i)
		}
		table[from] = to
	}
	return table, nil
}

// validateBackendConfig validates the history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(input.HistoryBackend)))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}
