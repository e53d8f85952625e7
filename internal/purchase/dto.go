package purchase

import (
	"time"

	"github.com/sankofa-retail/sankofa/internal/pricing"
)

// CreateSaleRequest is the createSale payload.
type CreateSaleRequest struct {
	ShopID            int64                `json:"shop_id" validate:"required,gt=0"`
	CustomerID        int64                `json:"customer_id" validate:"required,gt=0"`
	PurchaseType      pricing.PurchaseType `json:"purchase_type" validate:"required,oneof=CASH LAYAWAY CREDIT"`
	TenorDays         int                  `json:"tenor_days" validate:"gte=0"`
	Installments      int                  `json:"installments" validate:"gte=0"`
	DownPayment       float64              `json:"down_payment" validate:"gte=0"`
	DownPaymentMethod string               `json:"down_payment_method" validate:"omitempty,oneof=CASH MOMO BANK CARD"`
	Items             []SaleItemRequest    `json:"items" validate:"required,min=1,dive"`
}

// SaleItemRequest is one requested line. UnitPrice overrides the shop price
// when positive; zero means "use the shop's price".
type SaleItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// CreateSaleResult is returned to the caller on success.
type CreateSaleResult struct {
	PurchaseID     int64     `json:"purchase_id"`
	PurchaseNumber string    `json:"purchase_number"`
	Subtotal       float64   `json:"subtotal"`
	InterestAmount float64   `json:"interest_amount"`
	TotalAmount    float64   `json:"total_amount"`
	DownPayment    float64   `json:"down_payment"`
	Outstanding    float64   `json:"outstanding_balance"`
	Status         Status    `json:"status"`
	DueDate        time.Time `json:"due_date"`
}

// EditItemsRequest replaces a purchase's item lines.
type EditItemsRequest struct {
	Items []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Totals is the recomputed money summary after an item edit.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	InterestAmount float64 `json:"interest_amount"`
	TotalAmount    float64 `json:"total_amount"`
	AmountPaid     float64 `json:"amount_paid"`
	Outstanding    float64 `json:"outstanding_balance"`
	Status         Status  `json:"status"`
}

// VoidSaleRequest carries the operator's reason.
type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListPurchasesRequest filters the purchase listing.
type ListPurchasesRequest struct {
	ShopID     int64                 `json:"shop_id" validate:"required,gt=0"`
	CustomerID *int64                `json:"customer_id,omitempty"`
	Status     *Status               `json:"status,omitempty"`
	Type       *pricing.PurchaseType `json:"purchase_type,omitempty"`
	DateFrom   *time.Time            `json:"date_from,omitempty"`
	DateTo     *time.Time            `json:"date_to,omitempty"`
	Limit      int                   `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int                   `json:"offset" validate:"gte=0"`
}
