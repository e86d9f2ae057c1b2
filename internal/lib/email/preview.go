package email

// PreviewData holds sample variables per template, for local previews and tests.
var PreviewData = map[Template]map[string]string{
	TemplateErrorReport: {
		"Service":    "zrouter",
		"Method":     "POST",
		"Path":       "/api/orders",
		"Endpoint":   "endpoint-12",
		"RequestID":  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"Error":      "pq: relation \"orders\" does not exist",
		"OccurredAt": "2026-10-18T09:30:00Z",
	},
}
