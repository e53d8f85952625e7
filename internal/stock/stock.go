// Package stock maintains per-shop inventory counters. Helpers operate on a
// db.Queryer so callers compose them into the transaction that owns the
// causing purchase or payment mutation.
package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sankofa-retail/sankofa/internal/platform/db"
)

// ShopProduct is the per-shop stock record for a catalog product.
type ShopProduct struct {
	ShopID            int64     `json:"shop_id"`
	ProductID         int64     `json:"product_id"`
	ProductName       string    `json:"product_name"`
	StockQuantity     int       `json:"stock_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	PriceOverride     *float64  `json:"price_override,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Movement describes one product quantity being committed or restored.
type Movement struct {
	ProductID   int64
	ProductName string
	Quantity    int
}

// InsufficientStockError names the product and available count so the
// message can be rendered directly.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Only %d available.", e.ProductName, e.Available)
}

// ErrInvalidQuantity rejects zero or negative movement quantities.
var ErrInvalidQuantity = errors.New("stock: quantity must be positive")

// ErrProductNotStocked indicates the shop carries no record for the product.
var ErrProductNotStocked = errors.New("stock: product not stocked in shop")

// CheckAvailability verifies every movement can be satisfied by the shop's
// current counters. Reads are not locking; Decrement re-validates under the
// transaction's guard.
func CheckAvailability(ctx context.Context, q db.Queryer, shopID int64, movements []Movement) error {
	for _, m := range movements {
		if m.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		var available int
		err := q.QueryRow(ctx,
			`SELECT stock_quantity FROM shop_products WHERE shop_id = $1 AND product_id = $2`,
			shopID, m.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %s: %w", m.ProductName, ErrProductNotStocked)
			}
			return err
		}
		if available < m.Quantity {
			return &InsufficientStockError{ProductName: m.ProductName, Available: available}
		}
	}
	return nil
}

// Decrement commits the movements against the shop's counters. The guarded
// UPDATE keeps counters non-negative even when the pre-transaction check has
// gone stale; a failed guard is reported as insufficient stock.
func Decrement(ctx context.Context, q db.Queryer, shopID int64, movements []Movement) error {
	for _, m := range movements {
		if m.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		tag, err := q.Exec(ctx, `
			UPDATE shop_products
			SET stock_quantity = stock_quantity - $1, updated_at = NOW()
			WHERE shop_id = $2 AND product_id = $3 AND stock_quantity >= $1`,
			m.Quantity, shopID, m.ProductID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var available int
			err := q.QueryRow(ctx,
				`SELECT stock_quantity FROM shop_products WHERE shop_id = $1 AND product_id = $2`,
				shopID, m.ProductID).Scan(&available)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("product %s: %w", m.ProductName, ErrProductNotStocked)
				}
				return err
			}
			return &InsufficientStockError{ProductName: m.ProductName, Available: available}
		}
	}
	return nil
}

// Restore is the exact inverse of Decrement, used when a sale is voided.
func Restore(ctx context.Context, q db.Queryer, shopID int64, movements []Movement) error {
	for _, m := range movements {
		if m.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		tag, err := q.Exec(ctx, `
			UPDATE shop_products
			SET stock_quantity = stock_quantity + $1, updated_at = NOW()
			WHERE shop_id = $2 AND product_id = $3`,
			m.Quantity, shopID, m.ProductID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %s: %w", m.ProductName, ErrProductNotStocked)
		}
	}
	return nil
}

// LowStock lists shop products at or below their configured threshold.
func LowStock(ctx context.Context, q db.Queryer, shopID int64) ([]ShopProduct, error) {
	rows, err := q.Query(ctx, `
		SELECT sp.shop_id, sp.product_id, p.name, sp.stock_quantity, sp.low_stock_threshold, sp.price_override, sp.updated_at
		FROM shop_products sp
		JOIN products p ON p.id = sp.product_id
		WHERE sp.shop_id = $1 AND sp.stock_quantity <= sp.low_stock_threshold
		ORDER BY sp.stock_quantity ASC`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShopProduct
	for rows.Next() {
		var sp ShopProduct
		if err := rows.Scan(&sp.ShopID, &sp.ProductID, &sp.ProductName, &sp.StockQuantity, &sp.LowStockThreshold, &sp.PriceOverride, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
