// Package job runs background work on asynq, a redis-backed task queue.
//
// The router enqueues error reports through JobService.EnqueueErrorReport and
// the worker started by Start mails them.
package job

import (
	"context"

	"github.com/deppfellow/zrouter/internal/config"
	"github.com/deppfellow/zrouter/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Mailer sends error reports.
type Mailer interface {
	SendErrorReport(to []string, report email.ErrorReport) error
}

// enqueuer is the producer side of asynq.Client.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// JobService holds the asynq client and worker server.
type JobService struct {
	client     enqueuer
	server     *asynq.Server
	mailer     Mailer
	recipients []string
	logger     *zerolog.Logger
}

// NewJobService creates a JobService that queues through cfg.Redis and mails
// reports to cfg.Alerts.To.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		client:     client,
		server:     server,
		mailer:     email.NewClient(cfg, logger),
		recipients: cfg.Alerts.To,
		logger:     logger,
	}
}

// EnqueueErrorReport queues report for delivery to the configured recipients.
func (j *JobService) EnqueueErrorReport(ctx context.Context, report email.ErrorReport) error {
	task, err := NewErrorReportTask(j.recipients, report)
	if err != nil {
		return err
	}

	info, err := j.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("error report enqueued")

	return nil
}

// Start registers the task handlers and starts the worker server.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskErrorReport, j.handleErrorReportTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop shuts the worker down and closes the client connection.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	j.client.Close()
}
