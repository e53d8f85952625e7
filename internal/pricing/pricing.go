package pricing

import (
	"errors"
	"fmt"
)

// PurchaseType enumerates how a sale is funded.
type PurchaseType string

const (
	// PurchaseTypeCash is paid in full at the counter.
	PurchaseTypeCash PurchaseType = "CASH"
	// PurchaseTypeLayaway holds goods until the balance is paid off.
	PurchaseTypeLayaway PurchaseType = "LAYAWAY"
	// PurchaseTypeCredit releases goods against future instalments.
	PurchaseTypeCredit PurchaseType = "CREDIT"
)

// IsBNPL reports whether the type carries a repayment tenor.
func (t PurchaseType) IsBNPL() bool {
	return t == PurchaseTypeLayaway || t == PurchaseTypeCredit
}

// InterestType enumerates supported interest formulas.
type InterestType string

const (
	// InterestFlat charges rate once on the subtotal.
	InterestFlat InterestType = "FLAT"
	// InterestMonthly charges rate per 30-day slice of the tenor.
	InterestMonthly InterestType = "MONTHLY"
)

// Policy holds a business's BNPL terms. One per business, read-only input.
type Policy struct {
	BusinessID   int64
	InterestType InterestType
	InterestRate float64
	GraceDays    int
	MaxTenorDays int
	LateFeeFixed float64
	LateFeeRate  float64
}

// LineItem is the pricing-relevant slice of a purchase item.
type LineItem struct {
	UnitPrice float64
	Quantity  int
}

// Quote is the priced outcome of a sale.
type Quote struct {
	Subtotal       float64
	InterestAmount float64
	TotalAmount    float64
}

var (
	// ErrPolicyMissing indicates a BNPL sale without business terms.
	ErrPolicyMissing = errors.New("no payment policy configured for this business")
	// ErrTenorExceeded indicates the requested tenor is beyond policy limits.
	ErrTenorExceeded = errors.New("tenor exceeds policy maximum")
	// ErrNoItems indicates a sale without line items.
	ErrNoItems = errors.New("sale requires at least one item")
)

// Calculate prices a sale. CASH sales never accrue interest regardless of
// policy. BNPL sales require a policy and a tenor within its maximum.
func Calculate(items []LineItem, purchaseType PurchaseType, tenorDays int, policy *Policy) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, ErrNoItems
	}
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitPrice * float64(it.Quantity)
	}

	q := Quote{Subtotal: subtotal, TotalAmount: subtotal}
	if purchaseType == PurchaseTypeCash {
		return q, nil
	}

	if policy == nil {
		return Quote{}, ErrPolicyMissing
	}
	if policy.MaxTenorDays > 0 && tenorDays > policy.MaxTenorDays {
		return Quote{}, fmt.Errorf("%w: requested %d days, maximum %d", ErrTenorExceeded, tenorDays, policy.MaxTenorDays)
	}

	switch policy.InterestType {
	case InterestMonthly:
		q.InterestAmount = subtotal * (policy.InterestRate / 100) * MonthsElapsed(tenorDays)
	default:
		q.InterestAmount = subtotal * (policy.InterestRate / 100)
	}
	q.TotalAmount = q.Subtotal + q.InterestAmount
	return q, nil
}

// MonthsElapsed converts a tenor in days to months using simple proration.
// This is the single authoritative approximation across creation and edits.
func MonthsElapsed(tenorDays int) float64 {
	return float64(tenorDays) / 30
}

// SplitDownPayment clamps a down payment to the total and returns the paid
// and outstanding portions. Outstanding is floored at zero.
func SplitDownPayment(totalAmount, downPayment float64) (paid, outstanding float64) {
	if downPayment < 0 {
		downPayment = 0
	}
	if downPayment > totalAmount {
		downPayment = totalAmount
	}
	outstanding = totalAmount - downPayment
	if outstanding < 0 {
		outstanding = 0
	}
	return downPayment, outstanding
}
