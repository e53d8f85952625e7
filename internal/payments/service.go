package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/purchase"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// StorePort exposes the reads and the transaction boundary of the
// settlement workflow.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	ListPending(ctx context.Context, req ListPendingRequest) ([]Payment, int, error)
	ListByPurchase(ctx context.Context, purchaseID int64) ([]Payment, error)
}

// TxStore exposes the mutations that must share one transaction with the
// purchase they settle.
type TxStore interface {
	GetPaymentForUpdate(ctx context.Context, id int64) (*Payment, error)
	InsertPayment(ctx context.Context, p *Payment) (int64, error)
	MarkConfirmed(ctx context.Context, paymentID, confirmedBy int64, at time.Time) error
	MarkRejected(ctx context.Context, paymentID int64, reason string, at time.Time) error

	GetPurchaseForUpdate(ctx context.Context, id int64) (*purchase.Purchase, error)
	UpdatePurchase(ctx context.Context, p *purchase.Purchase) error

	WalletBalanceForUpdate(ctx context.Context, customerID int64) (float64, error)
	ApplyWallet(ctx context.Context, e wallet.Entry) (wallet.Transaction, error)
	DecrementStock(ctx context.Context, shopID int64, movements []stock.Movement) error
	EnsureWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, bool, error)
	CreateProgressInvoice(ctx context.Context, inv document.ProgressInvoice) (document.ProgressInvoice, error)
	CustomerName(ctx context.Context, customerID int64) (string, error)
	ShopName(ctx context.Context, shopID int64) (string, error)
}

// NotifierPort delivers payment receipts after commit. Delivery failures
// never roll back a settlement.
type NotifierPort interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

// AuditPort abstracts the fire-and-forget audit sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns payment recording and the confirm/reject workflow.
type Service struct {
	store    StorePort
	notifier NotifierPort
	audit    AuditPort
	logger   *slog.Logger
}

// NewService builds a payments Service.
func NewService(store StorePort, notifier NotifierPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, audit: audit, logger: logger}
}

// RecordPayment inserts a PENDING payment against an open purchase. WALLET
// payments draw down the customer's balance immediately and always
// auto-confirm; other methods confirm in the same transaction only when
// the caller asks for it.
func (s *Service) RecordPayment(ctx context.Context, actor *shared.Actor, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		result  RecordPaymentResult
		receipt *Receipt
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.GetPurchaseForUpdate(ctx, req.PurchaseID)
		if err != nil {
			return err
		}
		if err := purchase.CheckScope(actor, p); err != nil {
			return err
		}
		switch p.Status {
		case purchase.StatusCompleted:
			return purchase.ErrPurchaseCompleted
		case purchase.StatusVoided:
			return purchase.ErrPurchaseVoided
		}
		if req.Amount > p.OutstandingBalance {
			return fmt.Errorf("%w: %.2f > %.2f", ErrOverpayment, req.Amount, p.OutstandingBalance)
		}

		pay := &Payment{
			PurchaseID:  p.ID,
			Amount:      req.Amount,
			Method:      req.Method,
			Status:      StatusPending,
			CollectorID: req.CollectorID,
			RecordedBy:  actor.UserID,
			CreatedAt:   time.Now(),
		}

		if req.Method == MethodWallet {
			balance, err := tx.WalletBalanceForUpdate(ctx, p.CustomerID)
			if err != nil {
				return err
			}
			if balance < req.Amount {
				return fmt.Errorf("%w: %.2f available, %.2f requested", wallet.ErrInsufficientBalance, balance, req.Amount)
			}
			if _, err := tx.ApplyWallet(ctx, wallet.Entry{
				CustomerID:  p.CustomerID,
				ShopID:      p.ShopID,
				Type:        wallet.TxPurchase,
				Amount:      req.Amount,
				Description: fmt.Sprintf("Wallet payment on %s", p.PurchaseNumber),
				Reference:   p.PurchaseNumber,
			}); err != nil {
				return err
			}
		}

		id, err := tx.InsertPayment(ctx, pay)
		if err != nil {
			return err
		}
		pay.ID = id
		result.PaymentID = id

		if req.Method == MethodWallet || req.AutoConfirm {
			r, _, err := s.confirmLocked(ctx, tx, pay, p, actor.UserID)
			if err != nil {
				return err
			}
			receipt = r
			return nil
		}
		result.AwaitingConfirmation = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterConfirm(ctx, receipt)
	s.recordAudit(ctx, actor, "payment.record", result.PaymentID, map[string]any{
		"purchase_id": req.PurchaseID,
		"amount":      req.Amount,
		"method":      string(req.Method),
	})
	return &result, nil
}

// ConfirmPayment settles a pending payment: totals move, the status
// machine advances, the wallet is credited, and on completion the stock
// commit, waybill and delivery scheduling fire. Confirming twice is an
// error, not a double spend.
func (s *Service) ConfirmPayment(ctx context.Context, actor *shared.Actor, paymentID int64) (*ConfirmPaymentResult, error) {
	var (
		result  ConfirmPaymentResult
		receipt *Receipt
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		pay, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if pay.IsConfirmed {
			return ErrAlreadyConfirmed
		}
		if pay.RejectedAt != nil {
			return ErrAlreadyRejected
		}

		p, err := tx.GetPurchaseForUpdate(ctx, pay.PurchaseID)
		if err != nil {
			return err
		}
		if err := purchase.CheckScope(actor, p); err != nil {
			return err
		}
		if p.Status == purchase.StatusVoided {
			return purchase.ErrPurchaseVoided
		}

		r, completed, err := s.confirmLocked(ctx, tx, pay, p, actor.UserID)
		if err != nil {
			return err
		}
		receipt = r
		result.PurchaseCompleted = completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterConfirm(ctx, receipt)
	s.recordAudit(ctx, actor, "payment.confirm", paymentID, map[string]any{
		"purchase_completed": result.PurchaseCompleted,
	})
	return &result, nil
}

// confirmLocked runs the confirmation cascade against rows the caller has
// already locked. The purchase pointer is mutated in place.
func (s *Service) confirmLocked(ctx context.Context, tx TxStore, pay *Payment, p *purchase.Purchase, confirmedBy int64) (*Receipt, bool, error) {
	now := time.Now()
	if err := tx.MarkConfirmed(ctx, pay.ID, confirmedBy, now); err != nil {
		return nil, false, err
	}
	pay.Status = StatusCompleted
	pay.IsConfirmed = true
	pay.ConfirmedAt = &now
	pay.ConfirmedBy = &confirmedBy

	completedNow := purchase.ApplyConfirmedPayment(p, pay.Amount)

	if _, err := tx.ApplyWallet(ctx, wallet.Entry{
		CustomerID:  p.CustomerID,
		ShopID:      p.ShopID,
		Type:        wallet.TxDeposit,
		Amount:      pay.Amount,
		Description: fmt.Sprintf("Payment on %s", p.PurchaseNumber),
		Reference:   p.PurchaseNumber,
	}); err != nil {
		return nil, false, err
	}

	if completedNow {
		if p.Type.IsBNPL() {
			if err := tx.DecrementStock(ctx, p.ShopID, purchase.ItemMovements(p.Items)); err != nil {
				return nil, false, err
			}
		}
		if _, _, err := tx.EnsureWaybill(ctx, document.WaybillInput{
			PurchaseID: p.ID,
			ShopID:     p.ShopID,
			CustomerID: p.CustomerID,
		}); err != nil {
			return nil, false, err
		}
		if p.DeliveryStatus == purchase.DeliveryPending {
			p.DeliveryStatus = purchase.DeliveryScheduled
		}
	}

	if err := tx.UpdatePurchase(ctx, p); err != nil {
		return nil, false, err
	}

	customerName, err := tx.CustomerName(ctx, p.CustomerID)
	if err != nil {
		return nil, false, err
	}
	shopName, err := tx.ShopName(ctx, p.ShopID)
	if err != nil {
		return nil, false, err
	}
	if _, err := tx.CreateProgressInvoice(ctx, document.ProgressInvoice{
		PurchaseID:        p.ID,
		PaymentID:         pay.ID,
		CustomerID:        p.CustomerID,
		CustomerName:      customerName,
		ShopID:            p.ShopID,
		ShopName:          shopName,
		AmountPaid:        pay.Amount,
		AmountOutstanding: p.OutstandingBalance,
		TotalAmount:       p.TotalAmount,
		PaymentMethod:     string(pay.Method),
		CollectorID:       pay.CollectorID,
		ConfirmedByID:     confirmedBy,
		IssuedAt:          now,
	}); err != nil {
		return nil, false, err
	}

	return &Receipt{
		PaymentID:      pay.ID,
		PurchaseNumber: p.PurchaseNumber,
		CustomerID:     p.CustomerID,
		Amount:         pay.Amount,
		Outstanding:    p.OutstandingBalance,
		ConfirmedAt:    now,
	}, completedNow, nil
}

// RejectPayment marks a pending payment MISSED. Nothing else moves: the
// money never entered the totals, so there is nothing to unwind.
func (s *Service) RejectPayment(ctx context.Context, actor *shared.Actor, paymentID int64, req RejectPaymentRequest) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		pay, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if pay.IsConfirmed {
			return ErrAlreadyConfirmed
		}
		if pay.RejectedAt != nil {
			return ErrAlreadyRejected
		}

		p, err := tx.GetPurchaseForUpdate(ctx, pay.PurchaseID)
		if err != nil {
			return err
		}
		if err := purchase.CheckScope(actor, p); err != nil {
			return err
		}

		return tx.MarkRejected(ctx, paymentID, req.Reason, time.Now())
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actor, "payment.reject", paymentID, map[string]any{
		"reason": req.Reason,
	})
	return nil
}

// GetPayment fetches one payment.
func (s *Service) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// ListPending returns the shop's confirmation queue, oldest first.
func (s *Service) ListPending(ctx context.Context, actor *shared.Actor, req ListPendingRequest) ([]Payment, int, error) {
	if actor == nil {
		return nil, 0, shared.ErrScopeViolation
	}
	if actor.ShopID != 0 && actor.ShopID != req.ShopID {
		return nil, 0, fmt.Errorf("shop %d: %w", req.ShopID, shared.ErrScopeViolation)
	}
	return s.store.ListPending(ctx, req)
}

// ListByPurchase returns every payment recorded against a purchase.
func (s *Service) ListByPurchase(ctx context.Context, purchaseID int64) ([]Payment, error) {
	return s.store.ListByPurchase(ctx, purchaseID)
}

func (s *Service) afterConfirm(ctx context.Context, r *Receipt) {
	if r == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.SendReceipt(ctx, *r); err != nil && s.logger != nil {
		s.logger.Warn("receipt delivery",
			slog.Int64("payment_id", r.PaymentID),
			slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil || actor == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "payment",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
