package payments

import "time"

// RecordPaymentRequest is the recordPayment payload.
type RecordPaymentRequest struct {
	PurchaseID  int64   `json:"purchase_id" validate:"required,gt=0"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Method      Method  `json:"payment_method" validate:"required,oneof=CASH MOMO BANK CARD WALLET"`
	AutoConfirm bool    `json:"auto_confirm"`
	CollectorID *int64  `json:"collector_id,omitempty" validate:"omitempty,gt=0"`
}

// RecordPaymentResult reports the recorded payment and whether it still
// needs an explicit confirmation.
type RecordPaymentResult struct {
	PaymentID            int64 `json:"payment_id"`
	AwaitingConfirmation bool  `json:"awaiting_confirmation"`
}

// ConfirmPaymentResult reports whether the confirmation completed the purchase.
type ConfirmPaymentResult struct {
	PurchaseCompleted bool `json:"purchase_completed"`
}

// RejectPaymentRequest carries the rejection reason.
type RejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListPendingRequest filters the confirmation queue.
type ListPendingRequest struct {
	ShopID int64 `json:"shop_id" validate:"required,gt=0"`
	Limit  int   `json:"limit" validate:"gte=0,lte=1000"`
	Offset int   `json:"offset" validate:"gte=0"`
}

// Receipt is the notification payload sent after a confirmed payment.
type Receipt struct {
	PaymentID      int64     `json:"payment_id"`
	PurchaseNumber string    `json:"purchase_number"`
	CustomerID     int64     `json:"customer_id"`
	Amount         float64   `json:"amount"`
	Outstanding    float64   `json:"outstanding_balance"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}
