package payments

import (
	"errors"
	"time"
)

// Method enumerates recorded payment channels. Methods are recorded, not
// settled against an external gateway.
type Method string

const (
	MethodCash   Method = "CASH"
	MethodMomo   Method = "MOMO"
	MethodBank   Method = "BANK"
	MethodCard   Method = "CARD"
	MethodWallet Method = "WALLET"
)

// Status enumerates payment states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusMissed    Status = "MISSED"
)

// Payment is one recorded instalment against a purchase. Exactly one of
// confirm or reject terminates it; never both.
type Payment struct {
	ID              int64      `json:"id"`
	PurchaseID      int64      `json:"purchase_id"`
	Amount          float64    `json:"amount"`
	Method          Method     `json:"payment_method"`
	Status          Status     `json:"status"`
	IsConfirmed     bool       `json:"is_confirmed"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy     *int64     `json:"confirmed_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CollectorID     *int64     `json:"collector_id,omitempty"`
	RecordedBy      int64      `json:"recorded_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Terminal reports whether the payment is past its one allowed transition.
func (p *Payment) Terminal() bool {
	return p.IsConfirmed || p.RejectedAt != nil
}

// Errors surfaced by the settlement workflow.
var (
	ErrNotFound         = errors.New("payment not found")
	ErrAlreadyConfirmed = errors.New("payment already confirmed")
	ErrAlreadyRejected  = errors.New("payment already rejected")
	ErrOverpayment      = errors.New("amount exceeds outstanding balance")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
)
