package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sankofa-retail/sankofa/internal/payments"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceiptDeliver is the task type for post-settlement receipt delivery.
	TaskReceiptDeliver = "receipt:deliver"
	// TaskOverdueSweep is the task type for the nightly overdue sweep.
	TaskOverdueSweep = "purchase:overdue_sweep"
)

// ReceiptPayload carries the confirmed payment snapshot to the delivery job.
type ReceiptPayload struct {
	PaymentID      int64     `json:"payment_id"`
	PurchaseNumber string    `json:"purchase_number"`
	CustomerID     int64     `json:"customer_id"`
	Amount         float64   `json:"amount"`
	Outstanding    float64   `json:"outstanding_balance"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// NewReceiptTask constructs a receipt delivery task.
func NewReceiptTask(payload ReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptDeliver, data, asynq.MaxRetry(5)), nil
}

// OverdueSweepPayload carries the reference date for a sweep run. A zero
// AsOf means "now".
type OverdueSweepPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// NewOverdueSweepTask constructs an overdue sweep task.
func NewOverdueSweepTask(payload OverdueSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, data), nil
}

func receiptPayloadFrom(r payments.Receipt) ReceiptPayload {
	return ReceiptPayload{
		PaymentID:      r.PaymentID,
		PurchaseNumber: r.PurchaseNumber,
		CustomerID:     r.CustomerID,
		Amount:         r.Amount,
		Outstanding:    r.Outstanding,
		ConfirmedAt:    r.ConfirmedAt,
	}
}
