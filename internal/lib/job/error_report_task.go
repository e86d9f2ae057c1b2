package job

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/zrouter/internal/lib/email"
	"github.com/hibiken/asynq"
)

const (
	// TaskErrorReport mails the details of an unhandled route error.
	TaskErrorReport = "error:report"
)

// ErrorReportPayload is the payload stored in redis for TaskErrorReport.
type ErrorReportPayload struct {
	To     []string          `json:"to"`
	Report email.ErrorReport `json:"report"`
}

// NewErrorReportTask builds the asynq task for one error report.
func NewErrorReportTask(to []string, report email.ErrorReport) (*asynq.Task, error) {
	payload, err := json.Marshal(ErrorReportPayload{
		To:     to,
		Report: report,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskErrorReport,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}
