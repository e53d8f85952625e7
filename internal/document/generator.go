package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sankofa-retail/sankofa/internal/platform/db"
)

// maxNumberAttempts bounds the retry loop on number collisions. With an
// 8-hex-char random suffix collisions are vanishingly rare; the bound exists
// so a broken unique index cannot spin forever.
const maxNumberAttempts = 5

// WaybillInput carries what the completion cascade knows about the purchase.
type WaybillInput struct {
	PurchaseID int64
	ShopID     int64
	CustomerID int64
}

// insertOnce runs fn inside a savepoint so a unique violation does not abort
// the caller's transaction. A failed statement inside a pgx.Tx poisons the
// whole transaction until ROLLBACK TO SAVEPOINT; without this wrapper every
// statement after the first collision would fail with 25P02.
func insertOnce(ctx context.Context, q db.TxBeginner, fn func(sp pgx.Tx) error) error {
	sp, err := q.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

// EnsureWaybill creates the purchase's waybill if absent and returns it.
// Re-invocation from the completion cascade is a no-op on the existing row.
func EnsureWaybill(ctx context.Context, q db.TxBeginner, in WaybillInput) (Waybill, bool, error) {
	existing, err := waybillByPurchase(ctx, q, in.PurchaseID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Waybill{}, false, err
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		wb := Waybill{
			Number:     WaybillNumber(time.Now()),
			PurchaseID: in.PurchaseID,
			ShopID:     in.ShopID,
			CustomerID: in.CustomerID,
			Status:     "PENDING",
		}
		err := insertOnce(ctx, q, func(sp pgx.Tx) error {
			return sp.QueryRow(ctx, `
				INSERT INTO waybills (number, purchase_id, shop_id, customer_id, status, issued_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
				RETURNING id, issued_at`,
				wb.Number, wb.PurchaseID, wb.ShopID, wb.CustomerID, wb.Status).
				Scan(&wb.ID, &wb.IssuedAt)
		})
		if err == nil {
			return wb, true, nil
		}
		if !db.IsUniqueViolation(err) {
			return Waybill{}, false, err
		}
		// The purchase_id unique index also lands here when a concurrent
		// confirmation won the race; treat that as the no-op path.
		if existing, lookupErr := waybillByPurchase(ctx, q, in.PurchaseID); lookupErr == nil {
			return existing, false, nil
		}
	}
	return Waybill{}, false, fmt.Errorf("waybill for purchase %d: %w", in.PurchaseID, errDuplicateNumber)
}

// GenerateWaybill is the explicit admin call; unlike the cascade it fails
// when the purchase already has one.
func GenerateWaybill(ctx context.Context, q db.TxBeginner, in WaybillInput) (Waybill, error) {
	wb, created, err := EnsureWaybill(ctx, q, in)
	if err != nil {
		return Waybill{}, err
	}
	if !created {
		return Waybill{}, ErrWaybillExists
	}
	return wb, nil
}

func waybillByPurchase(ctx context.Context, q db.Queryer, purchaseID int64) (Waybill, error) {
	var wb Waybill
	err := q.QueryRow(ctx, `
		SELECT id, number, purchase_id, shop_id, customer_id, status, issued_at
		FROM waybills WHERE purchase_id = $1`, purchaseID).
		Scan(&wb.ID, &wb.Number, &wb.PurchaseID, &wb.ShopID, &wb.CustomerID, &wb.Status, &wb.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Waybill{}, ErrNotFound
		}
		return Waybill{}, err
	}
	return wb, nil
}

// CreateProgressInvoice snapshots one confirmed payment. The payment_id
// unique index enforces exactly one invoice per confirmed payment.
func CreateProgressInvoice(ctx context.Context, q db.TxBeginner, inv ProgressInvoice) (ProgressInvoice, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		inv.Number = ProgressInvoiceNumber(time.Now())
		err := insertOnce(ctx, q, func(sp pgx.Tx) error {
			return sp.QueryRow(ctx, `
				INSERT INTO progress_invoices
					(number, purchase_id, payment_id, customer_id, customer_name, shop_id, shop_name,
					 amount_paid, amount_outstanding, total_amount, payment_method, collector_id, confirmed_by, issued_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
				RETURNING id, issued_at`,
				inv.Number, inv.PurchaseID, inv.PaymentID, inv.CustomerID, inv.CustomerName, inv.ShopID, inv.ShopName,
				inv.AmountPaid, inv.AmountOutstanding, inv.TotalAmount, inv.PaymentMethod, inv.CollectorID, inv.ConfirmedByID).
				Scan(&inv.ID, &inv.IssuedAt)
		})
		if err == nil {
			return inv, nil
		}
		if !db.IsUniqueViolation(err) {
			return ProgressInvoice{}, err
		}
	}
	return ProgressInvoice{}, fmt.Errorf("progress invoice for payment %d: %w", inv.PaymentID, errDuplicateNumber)
}

// CreatePurchaseInvoice snapshots the purchase's items and the shop's payment
// channels. The purchase_id unique index enforces at most one per purchase;
// number collisions are retried with a fresh random candidate.
func CreatePurchaseInvoice(ctx context.Context, q db.TxBeginner, businessPrefix string, businessID int64, inv PurchaseInvoice) (PurchaseInvoice, error) {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return PurchaseInvoice{}, err
	}
	channelsJSON, err := json.Marshal(inv.PaymentChannels)
	if err != nil {
		return PurchaseInvoice{}, err
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		inv.Number = PurchaseInvoiceNumber(businessPrefix)
		err := insertOnce(ctx, q, func(sp pgx.Tx) error {
			return sp.QueryRow(ctx, `
				INSERT INTO purchase_invoices
					(number, business_id, purchase_id, customer_id, shop_id, subtotal, interest_amount, total_amount, items, payment_channels, issued_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
				RETURNING id, issued_at`,
				inv.Number, businessID, inv.PurchaseID, inv.CustomerID, inv.ShopID,
				inv.Subtotal, inv.InterestAmount, inv.TotalAmount, itemsJSON, channelsJSON).
				Scan(&inv.ID, &inv.IssuedAt)
		})
		if err == nil {
			return inv, nil
		}
		if !db.IsUniqueViolation(err) {
			return PurchaseInvoice{}, err
		}
		if _, lookupErr := purchaseInvoiceByPurchase(ctx, q, inv.PurchaseID); lookupErr == nil {
			return PurchaseInvoice{}, ErrInvoiceExists
		}
	}
	return PurchaseInvoice{}, fmt.Errorf("invoice for purchase %d: %w", inv.PurchaseID, errDuplicateNumber)
}

func purchaseInvoiceByPurchase(ctx context.Context, q db.Queryer, purchaseID int64) (PurchaseInvoice, error) {
	var inv PurchaseInvoice
	var itemsJSON, channelsJSON []byte
	err := q.QueryRow(ctx, `
		SELECT id, number, purchase_id, customer_id, shop_id, subtotal, interest_amount, total_amount, items, payment_channels, issued_at
		FROM purchase_invoices WHERE purchase_id = $1`, purchaseID).
		Scan(&inv.ID, &inv.Number, &inv.PurchaseID, &inv.CustomerID, &inv.ShopID,
			&inv.Subtotal, &inv.InterestAmount, &inv.TotalAmount, &itemsJSON, &channelsJSON, &inv.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseInvoice{}, ErrNotFound
		}
		return PurchaseInvoice{}, err
	}
	if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
		return PurchaseInvoice{}, err
	}
	if err := json.Unmarshal(channelsJSON, &inv.PaymentChannels); err != nil {
		return PurchaseInvoice{}, err
	}
	return inv, nil
}
