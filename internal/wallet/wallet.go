// Package wallet keeps per-customer signed running balances consistent with
// an append-only transaction log. The balance may go negative: debt is
// recognised the moment a BNPL sale is created.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sankofa-retail/sankofa/internal/platform/db"
)

// TxType enumerates ledger entry directions.
type TxType string

const (
	// TxDeposit credits the balance (confirmed payment, void offset).
	TxDeposit TxType = "DEPOSIT"
	// TxPurchase debits the balance (new debt, wallet-funded payment).
	TxPurchase TxType = "PURCHASE"
)

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID            int64
	CustomerID    int64
	ShopID        int64
	Type          TxType
	Amount        float64
	BalanceBefore float64
	BalanceAfter  float64
	Status        string
	Description   string
	Reference     string
	CreatedAt     time.Time
}

// Entry describes a ledger mutation to apply.
type Entry struct {
	CustomerID  int64
	ShopID      int64
	Type        TxType
	Amount      float64
	Description string
	Reference   string
}

var (
	// ErrInsufficientBalance rejects wallet-funded payments beyond the balance.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	// ErrInvalidAmount rejects non-positive ledger amounts.
	ErrInvalidAmount = errors.New("wallet: amount must be positive")
	// ErrCustomerNotFound indicates the ledger owner does not exist.
	ErrCustomerNotFound = errors.New("wallet: customer not found")
)

// Apply locks the customer row, appends the ledger entry and moves the
// running balance, all against the caller's queryer. Corrections are new
// offsetting entries; rows are never edited in place.
func Apply(ctx context.Context, q db.Queryer, e Entry) (Transaction, error) {
	if e.Amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	before, err := BalanceForUpdate(ctx, q, e.CustomerID)
	if err != nil {
		return Transaction{}, err
	}

	after, err := nextBalance(before, e.Type, e.Amount)
	if err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		CustomerID:    e.CustomerID,
		ShopID:        e.ShopID,
		Type:          e.Type,
		Amount:        e.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        "COMPLETED",
		Description:   e.Description,
		Reference:     e.Reference,
	}
	err = q.QueryRow(ctx, `
		INSERT INTO wallet_transactions
			(customer_id, shop_id, type, amount, balance_before, balance_after, status, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`,
		tx.CustomerID, tx.ShopID, tx.Type, tx.Amount, tx.BalanceBefore, tx.BalanceAfter, tx.Status, tx.Description, tx.Reference).
		Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}

	if _, err := q.Exec(ctx,
		`UPDATE customers SET wallet_balance = $1, updated_at = NOW() WHERE id = $2`,
		after, e.CustomerID); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func nextBalance(before float64, t TxType, amount float64) (float64, error) {
	switch t {
	case TxDeposit:
		return before + amount, nil
	case TxPurchase:
		return before - amount, nil
	default:
		return 0, fmt.Errorf("wallet: unknown transaction type %q", t)
	}
}

// BalanceForUpdate reads the customer's balance under a row lock so
// concurrent settlements on the same customer serialise.
func BalanceForUpdate(ctx context.Context, q db.Queryer, customerID int64) (float64, error) {
	var balance float64
	err := q.QueryRow(ctx,
		`SELECT wallet_balance FROM customers WHERE id = $1 FOR UPDATE`,
		customerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Balance reads the customer's current balance without locking.
func Balance(ctx context.Context, q db.Queryer, customerID int64) (float64, error) {
	var balance float64
	err := q.QueryRow(ctx,
		`SELECT wallet_balance FROM customers WHERE id = $1`,
		customerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}
	return balance, nil
}

// History returns the customer's ledger entries, newest first.
func History(ctx context.Context, q db.Queryer, customerID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.Query(ctx, `
		SELECT id, customer_id, shop_id, type, amount, balance_before, balance_after, status, description, reference, created_at
		FROM wallet_transactions
		WHERE customer_id = $1
		ORDER BY id DESC
		LIMIT $2`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.ShopID, &tx.Type, &tx.Amount, &tx.BalanceBefore, &tx.BalanceAfter, &tx.Status, &tx.Description, &tx.Reference, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}
