package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// handleErrorReportTask sends one queued error report. A returned error makes
// asynq retry the task.
func (j *JobService) handleErrorReportTask(ctx context.Context, t *asynq.Task) error {
	var p ErrorReportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal error report payload: %w", err)
	}

	j.logger.Info().
		Str("type", TaskErrorReport).
		Str("endpoint", p.Report.Endpoint).
		Str("request_id", p.Report.RequestID).
		Msg("processing error report task")

	if err := j.mailer.SendErrorReport(p.To, p.Report); err != nil {
		j.logger.Error().
			Str("type", TaskErrorReport).
			Str("endpoint", p.Report.Endpoint).
			Err(err).
			Msg("failed to send error report")
		return err
	}

	j.logger.Info().
		Str("type", TaskErrorReport).
		Str("endpoint", p.Report.Endpoint).
		Msg("error report sent")

	return nil
}
