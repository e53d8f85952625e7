package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/platform/db"
	"github.com/sankofa-retail/sankofa/internal/pricing"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// Repository provides PostgreSQL backed persistence for purchases.
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

const purchaseColumns = `
	id, purchase_number, business_id, shop_id, customer_id, purchase_type, status,
	subtotal, interest_amount, total_amount, down_payment, amount_paid, outstanding_balance,
	installments, start_date, due_date, interest_type, interest_rate, delivery_status,
	void_reason, voided_at, created_by, created_at, updated_at`

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var p Purchase
	var interestType *string
	err := row.Scan(
		&p.ID, &p.PurchaseNumber, &p.BusinessID, &p.ShopID, &p.CustomerID, &p.Type, &p.Status,
		&p.Subtotal, &p.InterestAmount, &p.TotalAmount, &p.DownPayment, &p.AmountPaid, &p.OutstandingBalance,
		&p.Installments, &p.StartDate, &p.DueDate, &interestType, &p.InterestRate, &p.DeliveryStatus,
		&p.VoidReason, &p.VoidedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if interestType != nil {
		p.InterestType = pricing.InterestType(*interestType)
	}
	return &p, nil
}

func loadItems(ctx context.Context, q db.Queryer, purchaseID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, purchase_id, product_id, product_name, quantity, unit_price, total_price
		FROM purchase_items WHERE purchase_id = $1 ORDER BY id`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetPurchase retrieves a purchase with its items.
func (r *Repository) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	p.Items, err = loadItems(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPurchases returns a filtered page of purchases with the total count.
func (r *Repository) ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	conditions := []string{"shop_id = $1"}
	args := []any{req.ShopID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Type != nil {
		conditions = append(conditions, fmt.Sprintf("purchase_type = $%d", argPos))
		args = append(args, *req.Type)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchases "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM purchases %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		purchaseColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// GetPolicy loads the business's BNPL terms.
func (r *Repository) GetPolicy(ctx context.Context, businessID int64) (*pricing.Policy, error) {
	var p pricing.Policy
	err := r.pool.QueryRow(ctx, `
		SELECT business_id, interest_type, interest_rate, grace_days, max_tenor_days,
		       COALESCE(late_fee_fixed, 0), COALESCE(late_fee_rate, 0)
		FROM business_policies WHERE business_id = $1`, businessID).
		Scan(&p.BusinessID, &p.InterestType, &p.InterestRate, &p.GraceDays, &p.MaxTenorDays, &p.LateFeeFixed, &p.LateFeeRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetShopInfo resolves the shop's business scope and invoice inputs.
func (r *Repository) GetShopInfo(ctx context.Context, shopID int64) (*ShopInfo, error) {
	var info ShopInfo
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.name, s.business_id, b.invoice_prefix
		FROM shops s JOIN businesses b ON b.id = s.business_id
		WHERE s.id = $1`, shopID).
		Scan(&info.ID, &info.Name, &info.BusinessID, &info.BusinessPrefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT method, account, label FROM shop_payment_channels
		WHERE shop_id = $1 AND is_active ORDER BY id`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ch document.PaymentChannel
		if err := rows.Scan(&ch.Method, &ch.Account, &ch.Label); err != nil {
			return nil, err
		}
		info.PaymentChannels = append(info.PaymentChannels, ch)
	}
	return &info, rows.Err()
}

// CheckStock runs the non-locking pre-sale availability check.
func (r *Repository) CheckStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	return stock.CheckAvailability(ctx, r.pool, shopID, movements)
}

// ListOverdueCandidates returns ACTIVE/OVERDUE purchases whose due date has
// passed. The per-purchase transactions re-validate under lock.
func (r *Repository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM purchases
		WHERE status IN ('ACTIVE', 'OVERDUE') AND due_date < $1
		ORDER BY due_date`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// txStore implements TxStore against a pgx transaction.
type txStore struct {
	q pgx.Tx
}

func (t *txStore) LockCustomer(ctx context.Context, customerID int64) error {
	var id int64
	err := t.q.QueryRow(ctx, `SELECT id FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("customer %d: %w", customerID, shared.ErrNotFound)
		}
		return err
	}
	return nil
}

func (t *txStore) NextPurchaseNumber(ctx context.Context, customerID int64) (string, error) {
	// Safe as a count because the caller holds the customer row lock.
	var seq int
	if err := t.q.QueryRow(ctx,
		`SELECT COUNT(*) + 1 FROM purchases WHERE customer_id = $1`, customerID).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("HP-%04d", seq), nil
}

func (t *txStore) GetProducts(ctx context.Context, shopID int64, productIDs []int64) (map[int64]ProductInfo, error) {
	rows, err := t.q.Query(ctx, `
		SELECT p.id, p.name, COALESCE(sp.price_override, p.price)
		FROM products p
		JOIN shop_products sp ON sp.product_id = p.id AND sp.shop_id = $1
		WHERE p.id = ANY($2)`, shopID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]ProductInfo, len(productIDs))
	for rows.Next() {
		var info ProductInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Price); err != nil {
			return nil, err
		}
		out[info.ID] = info
	}
	return out, rows.Err()
}

func (t *txStore) InsertPurchase(ctx context.Context, p *Purchase) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO purchases
			(purchase_number, business_id, shop_id, customer_id, purchase_type, status,
			 subtotal, interest_amount, total_amount, down_payment, amount_paid, outstanding_balance,
			 installments, start_date, due_date, interest_type, interest_rate, delivery_status,
			 created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, ''), $17, $18, $19, NOW(), NOW())
		RETURNING id`,
		p.PurchaseNumber, p.BusinessID, p.ShopID, p.CustomerID, p.Type, p.Status,
		p.Subtotal, p.InterestAmount, p.TotalAmount, p.DownPayment, p.AmountPaid, p.OutstandingBalance,
		p.Installments, p.StartDate, p.DueDate, string(p.InterestType), p.InterestRate, p.DeliveryStatus,
		p.CreatedBy).Scan(&id)
	return id, err
}

func (t *txStore) ReplaceItems(ctx context.Context, purchaseID int64, items []Item) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, purchaseID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := t.q.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			purchaseID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) InsertDownPayment(ctx context.Context, dp DownPayment) (int64, error) {
	var id int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO payments
			(purchase_id, amount, payment_method, status, is_confirmed, confirmed_at, confirmed_by, recorded_by, created_at)
		VALUES ($1, $2, $3, 'COMPLETED', TRUE, NOW(), $4, $4, NOW())
		RETURNING id`,
		dp.PurchaseID, dp.Amount, dp.Method, dp.RecordedBy).Scan(&id)
	return id, err
}

func (t *txStore) CustomerName(ctx context.Context, customerID int64) (string, error) {
	var name string
	err := t.q.QueryRow(ctx, `SELECT name FROM customers WHERE id = $1`, customerID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return name, err
}

func (t *txStore) CreateProgressInvoice(ctx context.Context, inv document.ProgressInvoice) (document.ProgressInvoice, error) {
	return document.CreateProgressInvoice(ctx, t.q, inv)
}

func (t *txStore) GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error) {
	return GetForUpdate(ctx, t.q, id)
}

func (t *txStore) UpdatePurchase(ctx context.Context, p *Purchase) error {
	return Save(ctx, t.q, p)
}

// GetForUpdate locks and loads a purchase with its items against the
// caller's queryer. Settlement code shares this with the purchase store.
func GetForUpdate(ctx context.Context, q db.Queryer, id int64) (*Purchase, error) {
	p, err := scanPurchase(q.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	p.Items, err = loadItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes back the mutable columns of a purchase.
func Save(ctx context.Context, q db.Queryer, p *Purchase) error {
	_, err := q.Exec(ctx, `
		UPDATE purchases SET
			subtotal = $2, interest_amount = $3, total_amount = $4,
			amount_paid = $5, outstanding_balance = $6, status = $7,
			delivery_status = $8, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Subtotal, p.InterestAmount, p.TotalAmount,
		p.AmountPaid, p.OutstandingBalance, p.Status, p.DeliveryStatus)
	return err
}

func (t *txStore) MarkVoided(ctx context.Context, purchaseID int64, reason string) error {
	_, err := t.q.Exec(ctx, `
		UPDATE purchases SET status = 'VOIDED', void_reason = $2, voided_at = NOW(), updated_at = NOW()
		WHERE id = $1`, purchaseID, reason)
	return err
}

func (t *txStore) RejectPendingPayments(ctx context.Context, purchaseID int64, reason string) (int, error) {
	tag, err := t.q.Exec(ctx, `
		UPDATE payments SET status = 'MISSED', rejected_at = NOW(), rejection_reason = $2
		WHERE purchase_id = $1 AND status = 'PENDING' AND NOT is_confirmed AND rejected_at IS NULL`,
		purchaseID, reason)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (t *txStore) CheckStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	return stock.CheckAvailability(ctx, t.q, shopID, movements)
}

func (t *txStore) DecrementStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	return stock.Decrement(ctx, t.q, shopID, movements)
}

func (t *txStore) RestoreStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	return stock.Restore(ctx, t.q, shopID, movements)
}

func (t *txStore) ApplyWallet(ctx context.Context, e wallet.Entry) (wallet.Transaction, error) {
	return wallet.Apply(ctx, t.q, e)
}

func (t *txStore) EnsureWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, bool, error) {
	return document.EnsureWaybill(ctx, t.q, in)
}

func (t *txStore) GenerateWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, error) {
	return document.GenerateWaybill(ctx, t.q, in)
}

func (t *txStore) CreatePurchaseInvoice(ctx context.Context, prefix string, businessID int64, inv document.PurchaseInvoice) (document.PurchaseInvoice, error) {
	return document.CreatePurchaseInvoice(ctx, t.q, prefix, businessID, inv)
}
