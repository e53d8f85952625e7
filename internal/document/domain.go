package document

import (
	"errors"
	"time"
)

// Waybill authorises delivery of a fully paid purchase. Exactly one exists
// per purchase; it is immutable after creation.
type Waybill struct {
	ID         int64
	Number     string
	PurchaseID int64
	ShopID     int64
	CustomerID int64
	Status     string
	IssuedAt   time.Time
}

// ProgressInvoice is a point-in-time receipt snapshot for one confirmed
// payment. Later edits to the source entities never change it.
type ProgressInvoice struct {
	ID                int64
	Number            string
	PurchaseID        int64
	PaymentID         int64
	CustomerID        int64
	CustomerName      string
	ShopID            int64
	ShopName          string
	AmountPaid        float64
	AmountOutstanding float64
	TotalAmount       float64
	PaymentMethod     string
	CollectorID       *int64
	ConfirmedByID     int64
	IssuedAt          time.Time
}

// PurchaseInvoice snapshots a purchase's items and the shop's payment
// channels. At most one exists per purchase.
type PurchaseInvoice struct {
	ID              int64
	Number          string
	PurchaseID      int64
	CustomerID      int64
	ShopID          int64
	Subtotal        float64
	InterestAmount  float64
	TotalAmount     float64
	Items           []InvoiceItem
	PaymentChannels []PaymentChannel
	IssuedAt        time.Time
}

// InvoiceItem is the frozen item line on a purchase invoice.
type InvoiceItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// PaymentChannel is a shop payment option frozen onto the invoice.
type PaymentChannel struct {
	Method  string `json:"method"`
	Account string `json:"account"`
	Label   string `json:"label"`
}

var (
	// ErrWaybillExists rejects an explicit generate call when one exists.
	ErrWaybillExists = errors.New("waybill already exists for this purchase")
	// ErrInvoiceExists rejects a second purchase invoice.
	ErrInvoiceExists = errors.New("invoice already exists for this purchase")
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("document: not found")
	// errDuplicateNumber is retried internally and never surfaces.
	errDuplicateNumber = errors.New("document: duplicate number")
)
