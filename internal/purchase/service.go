package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/pricing"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

// ProductInfo is the catalog snapshot used to freeze item lines.
type ProductInfo struct {
	ID    int64
	Name  string
	Price float64
}

// ShopInfo resolves a shop's business scope and invoice inputs.
type ShopInfo struct {
	ID              int64
	Name            string
	BusinessID      int64
	BusinessPrefix  string
	PaymentChannels []document.PaymentChannel
}

// DownPayment is the initial confirmed payment created atomically with a sale.
type DownPayment struct {
	PurchaseID int64
	Amount     float64
	Method     string
	RecordedBy int64
}

// StorePort abstracts persistence for the purchase state machine.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error)
	GetPolicy(ctx context.Context, businessID int64) (*pricing.Policy, error)
	GetShopInfo(ctx context.Context, shopID int64) (*ShopInfo, error)
	CheckStock(ctx context.Context, shopID int64, movements []stock.Movement) error
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]int64, error)
}

// TxStore exposes the mutations that must share one transaction.
type TxStore interface {
	LockCustomer(ctx context.Context, customerID int64) error
	NextPurchaseNumber(ctx context.Context, customerID int64) (string, error)
	GetProducts(ctx context.Context, shopID int64, productIDs []int64) (map[int64]ProductInfo, error)
	InsertPurchase(ctx context.Context, p *Purchase) (int64, error)
	ReplaceItems(ctx context.Context, purchaseID int64, items []Item) error
	InsertDownPayment(ctx context.Context, dp DownPayment) (int64, error)
	CustomerName(ctx context.Context, customerID int64) (string, error)
	CreateProgressInvoice(ctx context.Context, inv document.ProgressInvoice) (document.ProgressInvoice, error)
	GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error)
	UpdatePurchase(ctx context.Context, p *Purchase) error
	MarkVoided(ctx context.Context, purchaseID int64, reason string) error
	RejectPendingPayments(ctx context.Context, purchaseID int64, reason string) (int, error)

	CheckStock(ctx context.Context, shopID int64, movements []stock.Movement) error
	DecrementStock(ctx context.Context, shopID int64, movements []stock.Movement) error
	RestoreStock(ctx context.Context, shopID int64, movements []stock.Movement) error
	ApplyWallet(ctx context.Context, e wallet.Entry) (wallet.Transaction, error)
	EnsureWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, bool, error)
	GenerateWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, error)
	CreatePurchaseInvoice(ctx context.Context, prefix string, businessID int64, inv document.PurchaseInvoice) (document.PurchaseInvoice, error)
}

// AuditPort abstracts the fire-and-forget audit sink.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns sale creation, item edits, voiding and the overdue sweep.
type Service struct {
	store  StorePort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds a purchase Service.
func NewService(store StorePort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// CreateSale validates, prices and persists a sale atomically with its
// items, any down payment, the wallet debt entry, and for CASH the stock
// commit and waybill.
func (s *Service) CreateSale(ctx context.Context, actor *shared.Actor, req CreateSaleRequest) (*CreateSaleResult, error) {
	if actor == nil {
		return nil, shared.ErrScopeViolation
	}
	if actor.ShopID != 0 && actor.ShopID != req.ShopID {
		return nil, fmt.Errorf("shop %d: %w", req.ShopID, shared.ErrScopeViolation)
	}

	shop, err := s.store.GetShopInfo(ctx, req.ShopID)
	if err != nil {
		return nil, fmt.Errorf("resolve shop: %w", err)
	}
	if shop.BusinessID != actor.BusinessID {
		return nil, fmt.Errorf("shop %d: %w", req.ShopID, shared.ErrScopeViolation)
	}

	var policy *pricing.Policy
	if req.PurchaseType.IsBNPL() {
		policy, err = s.store.GetPolicy(ctx, shop.BusinessID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("load policy: %w", err)
		}
	}

	result := &CreateSaleResult{}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		// The customer lock serialises numbering and wallet movement for
		// concurrent sales against the same customer.
		if err := tx.LockCustomer(ctx, req.CustomerID); err != nil {
			return err
		}

		products, err := tx.GetProducts(ctx, req.ShopID, productIDs(req.Items))
		if err != nil {
			return err
		}
		items, lineItems, movements, err := buildItems(req.Items, products)
		if err != nil {
			return err
		}

		quote, err := pricing.Calculate(lineItems, req.PurchaseType, req.TenorDays, policy)
		if err != nil {
			return err
		}

		// Every sale type requires the goods to be on hand up front.
		if err := tx.CheckStock(ctx, req.ShopID, movements); err != nil {
			return err
		}

		down, outstanding := pricing.SplitDownPayment(quote.TotalAmount, req.DownPayment)
		now := time.Now()
		p := &Purchase{
			BusinessID:     shop.BusinessID,
			ShopID:         req.ShopID,
			CustomerID:     req.CustomerID,
			Type:           req.PurchaseType,
			Subtotal:       quote.Subtotal,
			InterestAmount: quote.InterestAmount,
			TotalAmount:    quote.TotalAmount,
			DownPayment:    down,
			AmountPaid:     down,
			Installments:   req.Installments,
			StartDate:      now,
			DeliveryStatus: DeliveryPending,
			CreatedBy:      actor.UserID,
		}
		if policy != nil {
			p.InterestType = policy.InterestType
			p.InterestRate = policy.InterestRate
		}
		if req.PurchaseType.IsBNPL() {
			p.DueDate = now.AddDate(0, 0, req.TenorDays)
			p.OutstandingBalance = outstanding
		}
		if req.PurchaseType == pricing.PurchaseTypeCash {
			// Forced settled at the counter, whatever the down payment said.
			p.DownPayment = 0
			p.AmountPaid = p.TotalAmount
			p.OutstandingBalance = 0
			p.DueDate = now
		}
		p.Status = statusOnCreate(req.PurchaseType, p.OutstandingBalance, p.DownPayment)

		number, err := tx.NextPurchaseNumber(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		p.PurchaseNumber = number

		completed := p.Status == StatusCompleted
		if completed {
			p.DeliveryStatus = DeliveryScheduled
		}

		id, err := tx.InsertPurchase(ctx, p)
		if err != nil {
			return err
		}
		p.ID = id
		for i := range items {
			items[i].PurchaseID = id
		}
		if err := tx.ReplaceItems(ctx, id, items); err != nil {
			return err
		}

		if p.Type.IsBNPL() && p.DownPayment > 0 {
			dpID, err := tx.InsertDownPayment(ctx, DownPayment{
				PurchaseID: id,
				Amount:     p.DownPayment,
				Method:     downPaymentMethod(req.DownPaymentMethod),
				RecordedBy: actor.UserID,
			})
			if err != nil {
				return err
			}
			// The down payment row is born confirmed, so its receipt
			// snapshot is cut here rather than by the confirm cascade.
			customerName, err := tx.CustomerName(ctx, p.CustomerID)
			if err != nil {
				return err
			}
			if _, err := tx.CreateProgressInvoice(ctx, document.ProgressInvoice{
				PurchaseID:        id,
				PaymentID:         dpID,
				CustomerID:        p.CustomerID,
				CustomerName:      customerName,
				ShopID:            p.ShopID,
				ShopName:          shop.Name,
				AmountPaid:        p.DownPayment,
				AmountOutstanding: p.OutstandingBalance,
				TotalAmount:       p.TotalAmount,
				PaymentMethod:     downPaymentMethod(req.DownPaymentMethod),
				ConfirmedByID:     actor.UserID,
			}); err != nil {
				return err
			}
		}

		// New debt is recognised the moment the sale exists, independent of
		// cash or goods movement.
		if p.Type.IsBNPL() && p.OutstandingBalance > 0 {
			if _, err := tx.ApplyWallet(ctx, wallet.Entry{
				CustomerID:  p.CustomerID,
				ShopID:      p.ShopID,
				Type:        wallet.TxPurchase,
				Amount:      p.OutstandingBalance,
				Description: "Purchase " + p.PurchaseNumber,
				Reference:   p.PurchaseNumber,
			}); err != nil {
				return err
			}
		}

		// Goods leave the shelf now only when the sale is already settled;
		// BNPL goods are held until paid off.
		if completed {
			if err := tx.DecrementStock(ctx, p.ShopID, movements); err != nil {
				return err
			}
			if _, _, err := tx.EnsureWaybill(ctx, document.WaybillInput{
				PurchaseID: p.ID,
				ShopID:     p.ShopID,
				CustomerID: p.CustomerID,
			}); err != nil {
				return err
			}
		}

		*result = CreateSaleResult{
			PurchaseID:     p.ID,
			PurchaseNumber: p.PurchaseNumber,
			Subtotal:       p.Subtotal,
			InterestAmount: p.InterestAmount,
			TotalAmount:    p.TotalAmount,
			DownPayment:    p.DownPayment,
			Outstanding:    p.OutstandingBalance,
			Status:         p.Status,
			DueDate:        p.DueDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.UserID, "sale.create", result.PurchaseID, map[string]any{
		"purchase_number": result.PurchaseNumber,
		"total_amount":    result.TotalAmount,
		"status":          result.Status,
	})
	return result, nil
}

// EditItems replaces a BNPL purchase's item lines and recomputes totals with
// the stored rate and type. Completed purchases are immutable.
func (s *Service) EditItems(ctx context.Context, actor *shared.Actor, purchaseID int64, req EditItemsRequest) (*Totals, error) {
	if actor == nil {
		return nil, shared.ErrScopeViolation
	}

	totals := &Totals{}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.GetPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := CheckScope(actor, p); err != nil {
			return err
		}
		if p.Type == pricing.PurchaseTypeCash {
			return ErrCashImmutable
		}
		switch p.Status {
		case StatusCompleted:
			return ErrPurchaseCompleted
		case StatusVoided:
			return ErrPurchaseVoided
		}

		products, err := tx.GetProducts(ctx, p.ShopID, productIDs(req.Items))
		if err != nil {
			return err
		}
		items, lineItems, movements, err := buildItems(req.Items, products)
		if err != nil {
			return err
		}
		if err := tx.CheckStock(ctx, p.ShopID, movements); err != nil {
			return err
		}

		policy := &pricing.Policy{
			InterestType: p.InterestType,
			InterestRate: p.InterestRate,
			MaxTenorDays: 0, // tenor was validated at creation
		}
		quote, err := pricing.Calculate(lineItems, p.Type, p.TenorDays(), policy)
		if err != nil {
			return err
		}

		oldOutstanding := p.OutstandingBalance
		completedNow := reprice(p, quote)

		for i := range items {
			items[i].PurchaseID = p.ID
		}
		if err := tx.ReplaceItems(ctx, p.ID, items); err != nil {
			return err
		}

		// The wallet carries the debt; a changed total is corrected with a
		// fresh offsetting entry, never by editing history.
		delta := p.OutstandingBalance - oldOutstanding
		if delta > 0 {
			if _, err := tx.ApplyWallet(ctx, wallet.Entry{
				CustomerID:  p.CustomerID,
				ShopID:      p.ShopID,
				Type:        wallet.TxPurchase,
				Amount:      delta,
				Description: "Item edit adjustment " + p.PurchaseNumber,
				Reference:   p.PurchaseNumber,
			}); err != nil {
				return err
			}
		} else if delta < 0 {
			if _, err := tx.ApplyWallet(ctx, wallet.Entry{
				CustomerID:  p.CustomerID,
				ShopID:      p.ShopID,
				Type:        wallet.TxDeposit,
				Amount:      -delta,
				Description: "Item edit adjustment " + p.PurchaseNumber,
				Reference:   p.PurchaseNumber,
			}); err != nil {
				return err
			}
		}

		if completedNow {
			p.DeliveryStatus = DeliveryScheduled
			if err := tx.DecrementStock(ctx, p.ShopID, movements); err != nil {
				return err
			}
			if _, _, err := tx.EnsureWaybill(ctx, document.WaybillInput{
				PurchaseID: p.ID,
				ShopID:     p.ShopID,
				CustomerID: p.CustomerID,
			}); err != nil {
				return err
			}
		}

		if err := tx.UpdatePurchase(ctx, p); err != nil {
			return err
		}

		*totals = Totals{
			Subtotal:       p.Subtotal,
			InterestAmount: p.InterestAmount,
			TotalAmount:    p.TotalAmount,
			AmountPaid:     p.AmountPaid,
			Outstanding:    p.OutstandingBalance,
			Status:         p.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.UserID, "sale.edit_items", purchaseID, map[string]any{
		"total_amount": totals.TotalAmount,
		"outstanding":  totals.Outstanding,
	})
	return totals, nil
}

// VoidSale cancels a purchase: committed stock is restored by the exact
// inverse increment, remaining debt is cleared with an offsetting deposit,
// and pending payments are rejected.
func (s *Service) VoidSale(ctx context.Context, actor *shared.Actor, purchaseID int64, reason string) error {
	if actor == nil {
		return shared.ErrScopeViolation
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.GetPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := CheckScope(actor, p); err != nil {
			return err
		}
		if p.Status == StatusVoided {
			return ErrPurchaseVoided
		}
		// Restored stock must still physically exist. Once the goods have
		// left with the customer a void would fabricate inventory.
		if p.DeliveryStatus == DeliveryDelivered {
			return ErrDelivered
		}

		stockCommitted := p.Type == pricing.PurchaseTypeCash || p.Status == StatusCompleted
		if stockCommitted {
			if err := tx.RestoreStock(ctx, p.ShopID, ItemMovements(p.Items)); err != nil {
				return err
			}
		}

		if p.OutstandingBalance > 0 {
			if _, err := tx.ApplyWallet(ctx, wallet.Entry{
				CustomerID:  p.CustomerID,
				ShopID:      p.ShopID,
				Type:        wallet.TxDeposit,
				Amount:      p.OutstandingBalance,
				Description: "Void " + p.PurchaseNumber,
				Reference:   p.PurchaseNumber,
			}); err != nil {
				return err
			}
		}

		rejected, err := tx.RejectPendingPayments(ctx, p.ID, "sale voided: "+reason)
		if err != nil {
			return err
		}
		if rejected > 0 && s.logger != nil {
			s.logger.Info("void rejected pending payments",
				slog.Int64("purchase_id", p.ID), slog.Int("count", rejected))
		}

		return tx.MarkVoided(ctx, p.ID, reason)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actor.UserID, "sale.void", purchaseID, map[string]any{"reason": reason})
	return nil
}

// GeneratePurchaseInvoice issues the purchase's single invoice snapshot.
func (s *Service) GeneratePurchaseInvoice(ctx context.Context, actor *shared.Actor, purchaseID int64) (*document.PurchaseInvoice, error) {
	if actor == nil {
		return nil, shared.ErrScopeViolation
	}

	var invoice document.PurchaseInvoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.GetPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := CheckScope(actor, p); err != nil {
			return err
		}
		shop, err := s.store.GetShopInfo(ctx, p.ShopID)
		if err != nil {
			return err
		}

		inv := document.PurchaseInvoice{
			PurchaseID:      p.ID,
			CustomerID:      p.CustomerID,
			ShopID:          p.ShopID,
			Subtotal:        p.Subtotal,
			InterestAmount:  p.InterestAmount,
			TotalAmount:     p.TotalAmount,
			Items:           invoiceItems(p.Items),
			PaymentChannels: shop.PaymentChannels,
		}
		invoice, err = tx.CreatePurchaseInvoice(ctx, shop.BusinessPrefix, shop.BusinessID, inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.UserID, "invoice.generate", purchaseID, map[string]any{"number": invoice.Number})
	return &invoice, nil
}

// GenerateWaybill is the explicit admin call; it fails when one exists.
func (s *Service) GenerateWaybill(ctx context.Context, actor *shared.Actor, purchaseID int64) (*document.Waybill, error) {
	if actor == nil {
		return nil, shared.ErrScopeViolation
	}

	var wb document.Waybill
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		p, err := tx.GetPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if err := CheckScope(actor, p); err != nil {
			return err
		}
		wb, err = tx.GenerateWaybill(ctx, document.WaybillInput{
			PurchaseID: p.ID,
			ShopID:     p.ShopID,
			CustomerID: p.CustomerID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.UserID, "waybill.generate", purchaseID, map[string]any{"number": wb.Number})
	return &wb, nil
}

// GetPurchase retrieves a purchase within the actor's scope.
func (s *Service) GetPurchase(ctx context.Context, actor *shared.Actor, id int64) (*Purchase, error) {
	p, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckScope(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPurchases returns a filtered page of purchases.
func (s *Service) ListPurchases(ctx context.Context, actor *shared.Actor, req ListPurchasesRequest) ([]Purchase, int, error) {
	if actor == nil {
		return nil, 0, shared.ErrScopeViolation
	}
	if actor.ShopID != 0 && actor.ShopID != req.ShopID {
		return nil, 0, fmt.Errorf("shop %d: %w", req.ShopID, shared.ErrScopeViolation)
	}
	return s.store.ListPurchases(ctx, req)
}

// SweepOverdue walks ACTIVE purchases past their due date and applies the
// OVERDUE/DEFAULTED transitions, charging the policy's late fee once on the
// OVERDUE transition. Each purchase is its own transaction so one failure
// never blocks the rest of the sweep.
func (s *Service) SweepOverdue(ctx context.Context, asOf time.Time) (int, error) {
	ids, err := s.store.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
			p, err := tx.GetPurchaseForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if p.Status != StatusActive && p.Status != StatusOverdue {
				return nil
			}

			policy, err := s.store.GetPolicy(ctx, p.BusinessID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			grace := 0
			maxTenor := 0
			if policy != nil {
				grace = policy.GraceDays
				maxTenor = policy.MaxTenorDays
			}
			overdueAt := p.DueDate.AddDate(0, 0, grace)
			if !asOf.After(overdueAt) {
				return nil
			}

			if p.Status == StatusActive {
				p.Status = StatusOverdue
				if fee := lateFee(policy, p.OutstandingBalance); fee > 0 {
					p.InterestAmount += fee
					p.TotalAmount += fee
					p.OutstandingBalance += fee
					if _, err := tx.ApplyWallet(ctx, wallet.Entry{
						CustomerID:  p.CustomerID,
						ShopID:      p.ShopID,
						Type:        wallet.TxPurchase,
						Amount:      fee,
						Description: "Late fee " + p.PurchaseNumber,
						Reference:   p.PurchaseNumber,
					}); err != nil {
						return err
					}
				}
			}
			// Default is measured from the due date itself; grace only
			// delays the OVERDUE transition and its late fee.
			if maxTenor > 0 && asOf.After(p.DueDate.AddDate(0, 0, maxTenor)) {
				p.Status = StatusDefaulted
			}

			swept++
			return tx.UpdatePurchase(ctx, p)
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("overdue sweep", slog.Int64("purchase_id", id), slog.Any("error", err))
			}
			continue
		}
	}
	return swept, nil
}

func lateFee(policy *pricing.Policy, outstanding float64) float64 {
	if policy == nil {
		return 0
	}
	return policy.LateFeeFixed + outstanding*(policy.LateFeeRate/100)
}

// CheckScope verifies the purchase is reachable from the actor's
// business/shop scope.
func CheckScope(actor *shared.Actor, p *Purchase) error {
	if actor == nil {
		return shared.ErrScopeViolation
	}
	if p.BusinessID != actor.BusinessID {
		return fmt.Errorf("purchase %d: %w", p.ID, shared.ErrScopeViolation)
	}
	if actor.ShopID != 0 && actor.ShopID != p.ShopID {
		return fmt.Errorf("purchase %d: %w", p.ID, shared.ErrScopeViolation)
	}
	return nil
}

func productIDs(items []SaleItemRequest) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func buildItems(reqs []SaleItemRequest, products map[int64]ProductInfo) ([]Item, []pricing.LineItem, []stock.Movement, error) {
	items := make([]Item, 0, len(reqs))
	lineItems := make([]pricing.LineItem, 0, len(reqs))
	movements := make([]stock.Movement, 0, len(reqs))
	for _, r := range reqs {
		info, ok := products[r.ProductID]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: product %d not sold in this shop", ErrValidation, r.ProductID)
		}
		price := info.Price
		if r.UnitPrice > 0 {
			price = r.UnitPrice
		}
		items = append(items, Item{
			ProductID:   r.ProductID,
			ProductName: info.Name,
			Quantity:    r.Quantity,
			UnitPrice:   price,
			TotalPrice:  price * float64(r.Quantity),
		})
		lineItems = append(lineItems, pricing.LineItem{UnitPrice: price, Quantity: r.Quantity})
		movements = append(movements, stock.Movement{ProductID: r.ProductID, ProductName: info.Name, Quantity: r.Quantity})
	}
	return items, lineItems, movements, nil
}

// ItemMovements maps item lines to stock movements.
func ItemMovements(items []Item) []stock.Movement {
	movements := make([]stock.Movement, 0, len(items))
	for _, it := range items {
		movements = append(movements, stock.Movement{ProductID: it.ProductID, ProductName: it.ProductName, Quantity: it.Quantity})
	}
	return movements
}

func invoiceItems(items []Item) []document.InvoiceItem {
	out := make([]document.InvoiceItem, 0, len(items))
	for _, it := range items {
		out = append(out, document.InvoiceItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return out
}

func downPaymentMethod(method string) string {
	if method == "" {
		return "CASH"
	}
	return method
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
