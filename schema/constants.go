package schema

import "fmt"

// Custom string types for type safety.
type (
	// OutputFormat represents the encoding of a rendered report.
	OutputFormat string

	// ContentType represents the encoding of a source document.
	ContentType string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// NormalizeKind represents a single normalization operation.
	NormalizeKind string
)

// All output formats supported.
const (
	JSONOut    OutputFormat = "json" // default
	CSVOut     OutputFormat = "csv"
	TextOut    OutputFormat = "text"
	HTMLOut    OutputFormat = "html"
	ParquetOut OutputFormat = "parquet"
)

// All source content types supported.
const (
	JSONContent ContentType = "json"
	XMLContent  ContentType = "xml"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All normalization kinds exposed by the CLI and MCP surfaces.
const (
	DateKind    NormalizeKind = "date"
	GenderKind  NormalizeKind = "gender"
	StatusKind  NormalizeKind = "status"
	PhoneKind   NormalizeKind = "phone"
	EmailKind   NormalizeKind = "email"
	PostalKind  NormalizeKind = "postal"
	NumericKind NormalizeKind = "numeric"
)

// ReportFilePrefix is the file name prefix of persisted reports.
const ReportFilePrefix = "validation-report"

// ReportTimestampFormat is the sortable yyyyMMdd-HHmmss layout used in report file names.
const ReportTimestampFormat = "20060102-150405"

// AllOutputFormats lists every output format in a stable order.
var AllOutputFormats = []OutputFormat{JSONOut, CSVOut, TextOut, HTMLOut, ParquetOut}

// ValidOutputFormats lists all valid output formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	JSONOut:    {},
	CSVOut:     {},
	TextOut:    {},
	HTMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidNormalizeKinds lists all valid normalization kinds.
var ValidNormalizeKinds = map[NormalizeKind]struct{}{
	DateKind:    {},
	GenderKind:  {},
	StatusKind:  {},
	PhoneKind:   {},
	EmailKind:   {},
	PostalKind:  {},
	NumericKind: {},
}

// Extension returns the file extension used when persisting a report in this format.
func (f OutputFormat) Extension() string {
	switch f {
	case TextOut:
		return "txt"
	default:
		return string(f)
	}
}

// ReportFileName returns the persisted report file name for a format and timestamp string.
func ReportFileName(format OutputFormat, timestamp string) string {
	return fmt.Sprintf("%s-%s.%s", ReportFilePrefix, timestamp, format.Extension())
}
