package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/sankofa-retail/sankofa/internal/jobs"
)

// ReceiptDeliverJob writes a customer notification for each confirmed
// payment. Delivery to external channels (SMS, email) is drained from the
// notifications table by the upstream messaging service.
type ReceiptDeliverJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReceiptDeliverJob wires dependencies for the receipt handler.
func NewReceiptDeliverJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReceiptDeliverJob {
	return &ReceiptDeliverJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes receipt delivery tasks.
func (j *ReceiptDeliverJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("receipt deliver: handler not configured")
	}
	tracker := j.Metrics.Track("receipt_deliver")

	var payload ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if payload.PaymentID == 0 || payload.CustomerID == 0 {
		_ = tracker.End(errors.New("receipt deliver: incomplete payload"))
		return asynq.SkipRetry
	}

	body := fmt.Sprintf("Payment of %.2f received on %s. Outstanding balance: %.2f.",
		payload.Amount, payload.PurchaseNumber, payload.Outstanding)

	// ON CONFLICT keeps redelivery of the same payment idempotent.
	_, err := j.Pool.Exec(ctx, `
		INSERT INTO notifications (customer_id, kind, reference, body, created_at)
		VALUES ($1, 'PAYMENT_RECEIPT', $2, $3, $4)
		ON CONFLICT (kind, reference) DO NOTHING`,
		payload.CustomerID, fmt.Sprintf("payment:%d", payload.PaymentID), body, j.clock())
	if err != nil {
		j.Logger.Error("receipt deliver", slog.Int64("payment_id", payload.PaymentID), slog.Any("error", err))
		return tracker.End(err)
	}

	j.Logger.Info("receipt delivered",
		slog.Int64("payment_id", payload.PaymentID),
		slog.Int64("customer_id", payload.CustomerID))
	return tracker.End(nil)
}
