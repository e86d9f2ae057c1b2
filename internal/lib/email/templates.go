package email

import "embed"

// Template names an HTML template under templates/.
type Template string

const (
	// TemplateErrorReport corresponds to templates/error_report.html
	TemplateErrorReport Template = "error_report"
)

//go:embed templates/*.html
var templateFS embed.FS
