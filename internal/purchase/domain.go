package purchase

import (
	"errors"
	"time"

	"github.com/sankofa-retail/sankofa/internal/pricing"
)

// Status enumerates purchase lifecycle states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusOverdue   Status = "OVERDUE"
	StatusDefaulted Status = "DEFAULTED"
	StatusVoided    Status = "VOIDED"
)

// Terminal reports whether no further payments or edits are accepted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusVoided
}

// DeliveryStatus tracks goods release after completion.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryScheduled DeliveryStatus = "SCHEDULED"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
)

// Purchase is one sale moving through the lifecycle.
type Purchase struct {
	ID                 int64                `json:"id"`
	PurchaseNumber     string               `json:"purchase_number"`
	BusinessID         int64                `json:"business_id"`
	ShopID             int64                `json:"shop_id"`
	CustomerID         int64                `json:"customer_id"`
	Type               pricing.PurchaseType `json:"purchase_type"`
	Status             Status               `json:"status"`
	Subtotal           float64              `json:"subtotal"`
	InterestAmount     float64              `json:"interest_amount"`
	TotalAmount        float64              `json:"total_amount"`
	DownPayment        float64              `json:"down_payment"`
	AmountPaid         float64              `json:"amount_paid"`
	OutstandingBalance float64              `json:"outstanding_balance"`
	Installments       int                  `json:"installments"`
	StartDate          time.Time            `json:"start_date"`
	DueDate            time.Time            `json:"due_date"`
	InterestType       pricing.InterestType `json:"interest_type"`
	InterestRate       float64              `json:"interest_rate"`
	DeliveryStatus     DeliveryStatus       `json:"delivery_status"`
	VoidReason         *string              `json:"void_reason,omitempty"`
	VoidedAt           *time.Time           `json:"voided_at,omitempty"`
	CreatedBy          int64                `json:"created_by"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	Items              []Item               `json:"items,omitempty"`
}

// TenorDays derives the agreed repayment period from the purchase dates.
func (p *Purchase) TenorDays() int {
	if p.DueDate.IsZero() || !p.DueDate.After(p.StartDate) {
		return 0
	}
	return int(p.DueDate.Sub(p.StartDate).Hours() / 24)
}

// Item is one product line with a name snapshot taken at sale time.
type Item struct {
	ID          int64   `json:"id"`
	PurchaseID  int64   `json:"purchase_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// statusOnCreate resolves the initial status. CASH sales are forced to
// COMPLETED regardless of any down-payment input; BNPL sales start PENDING
// until money moves.
func statusOnCreate(purchaseType pricing.PurchaseType, outstanding, downPayment float64) Status {
	if purchaseType == pricing.PurchaseTypeCash {
		return StatusCompleted
	}
	switch {
	case outstanding == 0:
		return StatusCompleted
	case downPayment > 0:
		return StatusActive
	default:
		return StatusPending
	}
}

// ApplyConfirmedPayment folds a confirmed amount into the purchase totals.
// It reports whether this payment completed the purchase. A COMPLETED
// purchase never moves backward.
func ApplyConfirmedPayment(p *Purchase, amount float64) (completedNow bool) {
	wasCompleted := p.Status == StatusCompleted
	p.AmountPaid += amount
	p.OutstandingBalance = p.TotalAmount - p.AmountPaid
	if p.OutstandingBalance < 0 {
		p.OutstandingBalance = 0
	}
	if p.OutstandingBalance == 0 {
		p.Status = StatusCompleted
	} else if p.Status == StatusPending {
		p.Status = StatusActive
	}
	return !wasCompleted && p.Status == StatusCompleted
}

// reprice recomputes totals after an item edit using the purchase's stored
// rate and type, then rebalances against the amount already paid.
func reprice(p *Purchase, quote pricing.Quote) (completedNow bool) {
	p.Subtotal = quote.Subtotal
	p.InterestAmount = quote.InterestAmount
	p.TotalAmount = quote.TotalAmount
	p.OutstandingBalance = p.TotalAmount - p.AmountPaid
	if p.OutstandingBalance <= 0 {
		p.OutstandingBalance = 0
		if p.Status != StatusCompleted {
			p.Status = StatusCompleted
			return true
		}
	}
	return false
}

// Errors surfaced by the purchase state machine.
var (
	ErrNotFound          = errors.New("purchase not found")
	ErrPurchaseCompleted = errors.New("purchase is completed and immutable")
	ErrPurchaseVoided    = errors.New("purchase has been voided")
	ErrDelivered         = errors.New("purchase has been delivered and cannot be voided")
	ErrCashImmutable     = errors.New("cash purchase items cannot be edited")
	ErrValidation        = errors.New("invalid sale payload")
)
