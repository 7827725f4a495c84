package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/babelboard/babelboard/internal/jobs"
)

// SessionsPurgeJob deletes login session records older than the retention
// window.
type SessionsPurgeJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionsPurgeJob initialises the purge handler.
func NewSessionsPurgeJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPurgeJob {
	return &SessionsPurgeJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes a purge run.
func (j *SessionsPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("sessions purge: handler not configured")
	}
	var payload SessionsPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 90
	}

	tracker := j.metrics().Track(TaskSessionsPurge)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := time.Now().UTC().AddDate(0, 0, -payload.RetentionDays)
	tag, err := j.Pool.Exec(ctx, `DELETE FROM login_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		resultErr = err
		j.logger().Error("purge failed", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("purged login sessions",
		slog.Int64("deleted", tag.RowsAffected()),
		slog.Int("retention_days", payload.RetentionDays),
	)
	return nil
}

func (j *SessionsPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionsPurge))
	}
	return slog.Default().With(slog.String("job", TaskSessionsPurge))
}

func (j *SessionsPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
