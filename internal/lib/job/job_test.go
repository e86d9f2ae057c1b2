package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/deppfellow/zrouter/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "critical"}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeMailer struct {
	to      []string
	reports []email.ErrorReport
	err     error
}

func (f *fakeMailer) SendErrorReport(to []string, report email.ErrorReport) error {
	f.to = to
	f.reports = append(f.reports, report)
	return f.err
}

func newTestService(q enqueuer, m Mailer) *JobService {
	logger := zerolog.Nop()
	return &JobService{
		client:     q,
		mailer:     m,
		recipients: []string{"ops@example.com"},
		logger:     &logger,
	}
}

func TestEnqueueErrorReport(t *testing.T) {
	q := &fakeEnqueuer{}
	j := newTestService(q, &fakeMailer{})

	err := j.EnqueueErrorReport(context.Background(), email.ErrorReport{Endpoint: "endpoint-3", Error: "boom"})

	require.NoError(t, err)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TaskErrorReport, q.tasks[0].Type())

	var p ErrorReportPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	assert.Equal(t, []string{"ops@example.com"}, p.To)
	assert.Equal(t, "endpoint-3", p.Report.Endpoint)
}

func TestHandleErrorReportTask(t *testing.T) {
	m := &fakeMailer{}
	j := newTestService(&fakeEnqueuer{}, m)

	task, err := NewErrorReportTask([]string{"a@example.com"}, email.ErrorReport{Error: "boom"})
	require.NoError(t, err)

	require.NoError(t, j.handleErrorReportTask(context.Background(), task))
	assert.Equal(t, []string{"a@example.com"}, m.to)
	require.Len(t, m.reports, 1)
	assert.Equal(t, "boom", m.reports[0].Error)
}

func TestHandleErrorReportTaskFailures(t *testing.T) {
	j := newTestService(&fakeEnqueuer{}, &fakeMailer{err: errors.New("smtp down")})

	bad := asynq.NewTask(TaskErrorReport, []byte("{"))
	assert.Error(t, j.handleErrorReportTask(context.Background(), bad))

	task, err := NewErrorReportTask(nil, email.ErrorReport{})
	require.NoError(t, err)
	assert.ErrorContains(t, j.handleErrorReportTask(context.Background(), task), "smtp down")
}
