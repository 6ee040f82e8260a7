package outwriter

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/huangsam/fhirgate/schema"
)

//go:embed templates/report.html.tmpl
var reportTemplateText string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"statusClass": func(ok bool) string {
		if ok {
			return "pass"
		}
		return "fail"
	},
	"timestamp": func(t time.Time) string { return t.Format(time.RFC3339) },
	"duration":  func(d time.Duration) string { return d.Round(time.Microsecond).String() },
	"percent":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"inc":       func(i int) int { return i + 1 },
}).Parse(reportTemplateText))

// htmlView is the data handed to the report template.
type htmlView struct {
	Report    schema.BatchValidationReport
	HasIssues bool
}

// writeHTMLReport writes a self-contained archival HTML document. Content is escaped by html/template.
func writeHTMLReport(w io.Writer, report schema.BatchValidationReport, _ Options) error {
	view := htmlView{Report: report}
	for _, r := range report.Results {
		if len(r.Issues) > 0 {
			view.HasIssues = true
			break
		}
	}
	return reportTemplate.Execute(w, view)
}
