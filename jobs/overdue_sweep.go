package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sankofa-retail/sankofa/internal/jobs"
	"github.com/sankofa-retail/sankofa/internal/purchase"
)

// OverdueSweepJob marks purchases past their due date OVERDUE and pushes
// long-stale ones to DEFAULTED, applying the business's late fee.
type OverdueSweepJob struct {
	Purchases *purchase.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewOverdueSweepJob wires dependencies for the sweep handler.
func NewOverdueSweepJob(purchases *purchase.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{
		Purchases: purchases,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue sweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Purchases == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	tracker := j.Metrics.Track("overdue_sweep")

	var payload OverdueSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}

	swept, err := j.Purchases.SweepOverdue(ctx, asOf)
	if err != nil {
		j.Logger.Error("overdue sweep", slog.Any("error", err))
		return tracker.End(err)
	}

	j.Metrics.AddOverdue("OVERDUE", 0, swept)
	j.Logger.Info("overdue sweep finished",
		slog.Time("as_of", asOf),
		slog.Int("swept", swept))
	return tracker.End(nil)
}
