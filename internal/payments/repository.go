package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/platform/db"
	"github.com/sankofa-retail/sankofa/internal/purchase"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// Repository provides PostgreSQL backed persistence for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx})
	})
}

const paymentColumns = `
	id, purchase_id, amount, payment_method, status, is_confirmed,
	confirmed_at, confirmed_by, rejected_at, rejection_reason,
	collector_id, recorded_by, created_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.PurchaseID, &p.Amount, &p.Method, &p.Status, &p.IsConfirmed,
		&p.ConfirmedAt, &p.ConfirmedBy, &p.RejectedAt, &p.RejectionReason,
		&p.CollectorID, &p.RecordedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanPayments(rows pgx.Rows) ([]Payment, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPayment fetches one payment by id.
func (r *Repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

// ListPending returns the shop's unconfirmed payments, oldest first.
func (r *Repository) ListPending(ctx context.Context, req ListPendingRequest) ([]Payment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM payments p
		JOIN purchases pu ON pu.id = p.purchase_id
		WHERE pu.shop_id = $1 AND p.status = 'PENDING'
		  AND NOT p.is_confirmed AND p.rejected_at IS NULL`,
		req.ShopID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM payments p
		JOIN purchases pu ON pu.id = p.purchase_id
		WHERE pu.shop_id = $1 AND p.status = 'PENDING'
		  AND NOT p.is_confirmed AND p.rejected_at IS NULL
		ORDER BY p.created_at
		LIMIT $2 OFFSET $3`, prefixed("p", paymentColumns)),
		req.ShopID, limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByPurchase returns every payment against a purchase, oldest first.
func (r *Repository) ListByPurchase(ctx context.Context, purchaseID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE purchase_id = $1 ORDER BY created_at`,
		purchaseID)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

type txStore struct {
	q pgx.Tx
}

func (t *txStore) GetPaymentForUpdate(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(t.q.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (t *txStore) InsertPayment(ctx context.Context, p *Payment) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO payments
			(purchase_id, amount, payment_method, status, is_confirmed, collector_id, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, NOW())
		RETURNING id`,
		p.PurchaseID, p.Amount, p.Method, p.Status, p.CollectorID, p.RecordedBy).Scan(&id)
	return id, err
}

func (t *txStore) MarkConfirmed(ctx context.Context, paymentID, confirmedBy int64, at time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE payments SET status = 'COMPLETED', is_confirmed = TRUE, confirmed_at = $2, confirmed_by = $3
		WHERE id = $1 AND NOT is_confirmed AND rejected_at IS NULL`,
		paymentID, at, confirmedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyConfirmed
	}
	return nil
}

func (t *txStore) MarkRejected(ctx context.Context, paymentID int64, reason string, at time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE payments SET status = 'MISSED', rejected_at = $2, rejection_reason = $3
		WHERE id = $1 AND NOT is_confirmed AND rejected_at IS NULL`,
		paymentID, at, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRejected
	}
	return nil
}

func (t *txStore) GetPurchaseForUpdate(ctx context.Context, id int64) (*purchase.Purchase, error) {
	return purchase.GetForUpdate(ctx, t.q, id)
}

func (t *txStore) UpdatePurchase(ctx context.Context, p *purchase.Purchase) error {
	return purchase.Save(ctx, t.q, p)
}

func (t *txStore) WalletBalanceForUpdate(ctx context.Context, customerID int64) (float64, error) {
	return wallet.BalanceForUpdate(ctx, t.q, customerID)
}

func (t *txStore) ApplyWallet(ctx context.Context, e wallet.Entry) (wallet.Transaction, error) {
	return wallet.Apply(ctx, t.q, e)
}

func (t *txStore) DecrementStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	return stock.Decrement(ctx, t.q, shopID, movements)
}

func (t *txStore) EnsureWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, bool, error) {
	return document.EnsureWaybill(ctx, t.q, in)
}

func (t *txStore) CreateProgressInvoice(ctx context.Context, inv document.ProgressInvoice) (document.ProgressInvoice, error) {
	return document.CreateProgressInvoice(ctx, t.q, inv)
}

func (t *txStore) CustomerName(ctx context.Context, customerID int64) (string, error) {
	var name string
	err := t.q.QueryRow(ctx, `SELECT name FROM customers WHERE id = $1`, customerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", wallet.ErrCustomerNotFound
	}
	return name, err
}

func (t *txStore) ShopName(ctx context.Context, shopID int64) (string, error) {
	var name string
	err := t.q.QueryRow(ctx, `SELECT name FROM shops WHERE id = $1`, shopID).Scan(&name)
	return name, err
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
