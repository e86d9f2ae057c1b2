package email

import "fmt"

// ErrorReport describes one unhandled route failure.
type ErrorReport struct {
	Service    string `json:"service"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Endpoint   string `json:"endpoint"`
	RequestID  string `json:"request_id"`
	Error      string `json:"error"`
	OccurredAt string `json:"occurred_at"`
}

// SendErrorReport mails report to the configured recipients.
func (c *Client) SendErrorReport(to []string, report ErrorReport) error {
	data := map[string]string{
		"Service":    report.Service,
		"Method":     report.Method,
		"Path":       report.Path,
		"Endpoint":   report.Endpoint,
		"RequestID":  report.RequestID,
		"Error":      report.Error,
		"OccurredAt": report.OccurredAt,
	}

	return c.SendEmail(
		to,
		fmt.Sprintf("[%s] unhandled error on %s %s", report.Service, report.Method, report.Path),
		TemplateErrorReport,
		data,
	)
}
