package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/sankofa-retail/sankofa/internal/payments"
)

func newTestClient(t *testing.T) (*Client, asynq.RedisClientOpt) {
	t.Helper()
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	client, err := NewClient(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, opts
}

func TestEnqueueReceiptRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)

	payload := ReceiptPayload{
		PaymentID:      42,
		PurchaseNumber: "HP-0007",
		CustomerID:     55,
		Amount:         300,
		Outstanding:    500,
		ConfirmedAt:    time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	info, err := client.EnqueueReceipt(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, TaskReceiptDeliver, info.Type)
	require.Equal(t, QueueDefault, info.Queue)

	var got ReceiptPayload
	require.NoError(t, json.Unmarshal(info.Payload, &got))
	require.Equal(t, payload, got)
}

func TestEnqueueOverdueSweepZeroMeansNow(t *testing.T) {
	client, _ := newTestClient(t)

	info, err := client.EnqueueOverdueSweep(context.Background(), OverdueSweepPayload{})
	require.NoError(t, err)
	require.Equal(t, TaskOverdueSweep, info.Type)

	var got OverdueSweepPayload
	require.NoError(t, json.Unmarshal(info.Payload, &got))
	require.True(t, got.AsOf.IsZero())
}

func TestNotifierEnqueuesReceipt(t *testing.T) {
	client, opts := newTestClient(t)
	notifier := NewNotifier(client)

	receipt := payments.Receipt{
		PaymentID:      9,
		PurchaseNumber: "HP-0002",
		CustomerID:     81,
		Amount:         150,
		Outstanding:    0,
		ConfirmedAt:    time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.SendReceipt(context.Background(), receipt))

	inspector := asynq.NewInspector(opts)
	defer func() { _ = inspector.Close() }()

	pending, err := inspector.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, TaskReceiptDeliver, pending[0].Type)

	var got ReceiptPayload
	require.NoError(t, json.Unmarshal(pending[0].Payload, &got))
	require.Equal(t, int64(81), got.CustomerID)
	require.Equal(t, "HP-0002", got.PurchaseNumber)
}

func TestNotifierNilClient(t *testing.T) {
	var notifier *Notifier
	require.NoError(t, notifier.SendReceipt(context.Background(), payments.Receipt{PaymentID: 1}))
}
