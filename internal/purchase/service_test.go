package purchase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sankofa-retail/sankofa/internal/document"
	"github.com/sankofa-retail/sankofa/internal/pricing"
	"github.com/sankofa-retail/sankofa/internal/shared"
	"github.com/sankofa-retail/sankofa/internal/stock"
	"github.com/sankofa-retail/sankofa/internal/wallet"
)

type memoryStore struct {
	purchases map[int64]*Purchase
	nextID    int64

	shop     *ShopInfo
	policy   *pricing.Policy
	products map[int64]ProductInfo
	stockQty map[int64]int

	walletEntries []wallet.Entry
	downPayments  []DownPayment
	progressInv   []document.ProgressInvoice
	waybills      map[int64]document.Waybill
	invoices      map[int64]document.PurchaseInvoice
	pending       map[int64]int
	numbers       map[int64]int
	overdue       []int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		purchases: make(map[int64]*Purchase),
		shop: &ShopInfo{
			ID:             1,
			Name:           "Adabraka Branch",
			BusinessID:     10,
			BusinessPrefix: "ADB",
		},
		products: map[int64]ProductInfo{
			100: {ID: 100, Name: "Standing Fan", Price: 100},
			200: {ID: 200, Name: "Chest Freezer", Price: 500},
		},
		stockQty: map[int64]int{100: 10, 200: 5},
		waybills: make(map[int64]document.Waybill),
		invoices: make(map[int64]document.PurchaseInvoice),
		pending:  make(map[int64]int),
		numbers:  make(map[int64]int),
	}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return fn(ctx, m)
}

func (m *memoryStore) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	p, ok := m.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryStore) ListPurchases(ctx context.Context, req ListPurchasesRequest) ([]Purchase, int, error) {
	var out []Purchase
	for _, p := range m.purchases {
		if p.ShopID != req.ShopID {
			continue
		}
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memoryStore) GetPolicy(ctx context.Context, businessID int64) (*pricing.Policy, error) {
	if m.policy == nil {
		return nil, shared.ErrNotFound
	}
	cp := *m.policy
	return &cp, nil
}

func (m *memoryStore) GetShopInfo(ctx context.Context, shopID int64) (*ShopInfo, error) {
	if shopID != m.shop.ID {
		return nil, shared.ErrNotFound
	}
	cp := *m.shop
	return &cp, nil
}

func (m *memoryStore) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]int64, error) {
	return m.overdue, nil
}

func (m *memoryStore) LockCustomer(ctx context.Context, customerID int64) error { return nil }

func (m *memoryStore) NextPurchaseNumber(ctx context.Context, customerID int64) (string, error) {
	m.numbers[customerID]++
	return fmt.Sprintf("HP-%04d", m.numbers[customerID]), nil
}

func (m *memoryStore) GetProducts(ctx context.Context, shopID int64, productIDs []int64) (map[int64]ProductInfo, error) {
	out := make(map[int64]ProductInfo)
	for _, id := range productIDs {
		if info, ok := m.products[id]; ok {
			out[id] = info
		}
	}
	return out, nil
}

func (m *memoryStore) InsertPurchase(ctx context.Context, p *Purchase) (int64, error) {
	m.nextID++
	cp := *p
	cp.ID = m.nextID
	m.purchases[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memoryStore) ReplaceItems(ctx context.Context, purchaseID int64, items []Item) error {
	p, ok := m.purchases[purchaseID]
	if !ok {
		return ErrNotFound
	}
	p.Items = append([]Item(nil), items...)
	return nil
}

func (m *memoryStore) InsertDownPayment(ctx context.Context, dp DownPayment) (int64, error) {
	m.downPayments = append(m.downPayments, dp)
	return int64(len(m.downPayments)), nil
}

func (m *memoryStore) CustomerName(ctx context.Context, customerID int64) (string, error) {
	return fmt.Sprintf("Customer %d", customerID), nil
}

func (m *memoryStore) CreateProgressInvoice(ctx context.Context, inv document.ProgressInvoice) (document.ProgressInvoice, error) {
	for _, existing := range m.progressInv {
		if existing.PaymentID == inv.PaymentID {
			return document.ProgressInvoice{}, fmt.Errorf("duplicate invoice for payment %d", inv.PaymentID)
		}
	}
	inv.ID = int64(len(m.progressInv) + 1)
	m.progressInv = append(m.progressInv, inv)
	return inv, nil
}

func (m *memoryStore) GetPurchaseForUpdate(ctx context.Context, id int64) (*Purchase, error) {
	return m.GetPurchase(ctx, id)
}

func (m *memoryStore) UpdatePurchase(ctx context.Context, p *Purchase) error {
	if _, ok := m.purchases[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.purchases[p.ID] = &cp
	return nil
}

func (m *memoryStore) MarkVoided(ctx context.Context, purchaseID int64, reason string) error {
	p, ok := m.purchases[purchaseID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	p.Status = StatusVoided
	p.VoidReason = &reason
	p.VoidedAt = &now
	return nil
}

func (m *memoryStore) RejectPendingPayments(ctx context.Context, purchaseID int64, reason string) (int, error) {
	n := m.pending[purchaseID]
	m.pending[purchaseID] = 0
	return n, nil
}

func (m *memoryStore) CheckStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	for _, mv := range movements {
		if m.stockQty[mv.ProductID] < mv.Quantity {
			return &stock.InsufficientStockError{
				ProductName: mv.ProductName,
				Available:   m.stockQty[mv.ProductID],
			}
		}
	}
	return nil
}

func (m *memoryStore) DecrementStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	if err := m.CheckStock(ctx, shopID, movements); err != nil {
		return err
	}
	for _, mv := range movements {
		m.stockQty[mv.ProductID] -= mv.Quantity
	}
	return nil
}

func (m *memoryStore) RestoreStock(ctx context.Context, shopID int64, movements []stock.Movement) error {
	for _, mv := range movements {
		m.stockQty[mv.ProductID] += mv.Quantity
	}
	return nil
}

func (m *memoryStore) ApplyWallet(ctx context.Context, e wallet.Entry) (wallet.Transaction, error) {
	m.walletEntries = append(m.walletEntries, e)
	return wallet.Transaction{ID: int64(len(m.walletEntries))}, nil
}

func (m *memoryStore) EnsureWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, bool, error) {
	if wb, ok := m.waybills[in.PurchaseID]; ok {
		return wb, false, nil
	}
	wb := document.Waybill{Number: fmt.Sprintf("WB-%d", in.PurchaseID), PurchaseID: in.PurchaseID}
	m.waybills[in.PurchaseID] = wb
	return wb, true, nil
}

func (m *memoryStore) GenerateWaybill(ctx context.Context, in document.WaybillInput) (document.Waybill, error) {
	if _, ok := m.waybills[in.PurchaseID]; ok {
		return document.Waybill{}, document.ErrWaybillExists
	}
	wb, _, _ := m.EnsureWaybill(ctx, in)
	return wb, nil
}

func (m *memoryStore) CreatePurchaseInvoice(ctx context.Context, prefix string, businessID int64, inv document.PurchaseInvoice) (document.PurchaseInvoice, error) {
	if _, ok := m.invoices[inv.PurchaseID]; ok {
		return document.PurchaseInvoice{}, document.ErrInvoiceExists
	}
	inv.Number = fmt.Sprintf("INV-%s-%06d", prefix, len(m.invoices)+1)
	m.invoices[inv.PurchaseID] = inv
	return inv, nil
}

func (m *memoryStore) walletEntriesOfType(t wallet.TxType) []wallet.Entry {
	var out []wallet.Entry
	for _, e := range m.walletEntries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testActor() *shared.Actor {
	return &shared.Actor{UserID: 7, BusinessID: 10, ShopID: 1, Role: "manager"}
}

func newTestService(store *memoryStore) *Service {
	return NewService(store, nil, nil)
}

func TestCreateSaleCashSettlesImmediately(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		DownPayment:  50, // ignored for CASH
		Items: []SaleItemRequest{
			{ProductID: 100, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, 200.0, result.TotalAmount)
	require.Equal(t, 0.0, result.DownPayment)
	require.Equal(t, 0.0, result.Outstanding)
	require.Equal(t, "HP-0001", result.PurchaseNumber)

	require.Equal(t, 8, store.stockQty[100])
	require.Contains(t, store.waybills, result.PurchaseID)
	require.Empty(t, store.walletEntries)
	require.Empty(t, store.downPayments)

	p, err := svc.GetPurchase(context.Background(), testActor(), result.PurchaseID)
	require.NoError(t, err)
	require.Equal(t, DeliveryScheduled, p.DeliveryStatus)
}

func TestCreateSaleLayawayFlatInterest(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{
		BusinessID:   10,
		InterestType: pricing.InterestFlat,
		InterestRate: 10,
		MaxTenorDays: 180,
	}
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeLayaway,
		TenorDays:    60,
		DownPayment:  100,
		Items: []SaleItemRequest{
			{ProductID: 100, Quantity: 10},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1000.0, result.Subtotal)
	require.Equal(t, 100.0, result.InterestAmount)
	require.Equal(t, 1100.0, result.TotalAmount)
	require.Equal(t, 100.0, result.DownPayment)
	require.Equal(t, 1000.0, result.Outstanding)
	require.Equal(t, StatusActive, result.Status)

	// goods stay on the shelf until paid off
	require.Equal(t, 10, store.stockQty[100])
	require.NotContains(t, store.waybills, result.PurchaseID)

	require.Len(t, store.downPayments, 1)
	require.Equal(t, 100.0, store.downPayments[0].Amount)

	debits := store.walletEntriesOfType(wallet.TxPurchase)
	require.Len(t, debits, 1)
	require.Equal(t, 1000.0, debits[0].Amount)
}

func TestCreateSaleDownPaymentGetsReceiptSnapshot(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{
		BusinessID:   10,
		InterestType: pricing.InterestFlat,
		InterestRate: 10,
		MaxTenorDays: 180,
	}
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCredit,
		TenorDays:    60,
		DownPayment:  200,
		Items: []SaleItemRequest{
			{ProductID: 100, Quantity: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.downPayments, 1)

	// the down payment is confirmed at birth, so it must carry its own
	// progress invoice out of the creation transaction
	require.Len(t, store.progressInv, 1)
	inv := store.progressInv[0]
	require.Equal(t, int64(1), inv.PaymentID)
	require.Equal(t, result.PurchaseID, inv.PurchaseID)
	require.Equal(t, 200.0, inv.AmountPaid)
	require.Equal(t, result.Outstanding, inv.AmountOutstanding)
	require.Equal(t, result.TotalAmount, inv.TotalAmount)
	require.Equal(t, "Adabraka Branch", inv.ShopName)
	require.Equal(t, testActor().UserID, inv.ConfirmedByID)
}

func TestCreateSaleCashSkipsReceiptSnapshot(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	_, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items: []SaleItemRequest{
			{ProductID: 100, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Empty(t, store.progressInv)
}

func TestCreateSaleCreditMonthlyInterest(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{
		BusinessID:   10,
		InterestType: pricing.InterestMonthly,
		InterestRate: 5,
		MaxTenorDays: 180,
	}
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCredit,
		TenorDays:    90,
		Items: []SaleItemRequest{
			{ProductID: 200, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 500.0, result.Subtotal)
	require.Equal(t, 75.0, result.InterestAmount) // 500 * 5% * 3 months
	require.Equal(t, 575.0, result.TotalAmount)
	require.Equal(t, StatusPending, result.Status)
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	_, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items: []SaleItemRequest{
			{ProductID: 200, Quantity: 6},
		},
	})
	var stockErr *stock.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, "Insufficient stock for Chest Freezer. Only 5 available.", stockErr.Error())
	require.Empty(t, store.purchases)
}

func TestCreateSaleBNPLRequiresPolicy(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	_, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeLayaway,
		TenorDays:    30,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.ErrorIs(t, err, pricing.ErrPolicyMissing)
}

func TestCreateSaleTenorExceeded(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, MaxTenorDays: 90}
	svc := newTestService(store)

	_, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCredit,
		TenorDays:    120,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.ErrorIs(t, err, pricing.ErrTenorExceeded)
}

func TestCreateSaleShopScope(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	actor := testActor()
	actor.ShopID = 2
	_, err := svc.CreateSale(context.Background(), actor, CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrScopeViolation)
}

func createLayaway(t *testing.T, store *memoryStore, svc *Service, downPayment float64) *CreateSaleResult {
	t.Helper()
	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeLayaway,
		TenorDays:    60,
		DownPayment:  downPayment,
		Items: []SaleItemRequest{
			{ProductID: 100, Quantity: 10},
		},
	})
	require.NoError(t, err)
	return result
}

func TestEditItemsAdjustsWalletDebt(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, MaxTenorDays: 180}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.walletEntries = nil

	// shrink the order: subtotal 500, interest 50, total 550, paid 100
	totals, err := svc.EditItems(context.Background(), testActor(), result.PurchaseID, EditItemsRequest{
		Items: []SaleItemRequest{{ProductID: 100, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, 550.0, totals.TotalAmount)
	require.Equal(t, 100.0, totals.AmountPaid)
	require.Equal(t, 450.0, totals.Outstanding)
	require.Equal(t, StatusActive, totals.Status)

	// old outstanding 1000, new 450: one offsetting deposit of 550
	deposits := store.walletEntriesOfType(wallet.TxDeposit)
	require.Len(t, deposits, 1)
	require.Equal(t, 550.0, deposits[0].Amount)
}

func TestEditItemsCompletionCascade(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 0, MaxTenorDays: 180}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 500)

	// shrink the order to exactly what was already paid
	totals, err := svc.EditItems(context.Background(), testActor(), result.PurchaseID, EditItemsRequest{
		Items: []SaleItemRequest{{ProductID: 100, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, totals.Status)
	require.Equal(t, 0.0, totals.Outstanding)

	// completion commits stock and issues the waybill
	require.Equal(t, 5, store.stockQty[100])
	require.Contains(t, store.waybills, result.PurchaseID)
}

func TestEditItemsCashImmutable(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.EditItems(context.Background(), testActor(), result.PurchaseID, EditItemsRequest{
		Items: []SaleItemRequest{{ProductID: 100, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrCashImmutable)
}

func TestVoidSaleActiveClearsDebt(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, MaxTenorDays: 180}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.walletEntries = nil
	store.pending[result.PurchaseID] = 2

	err := svc.VoidSale(context.Background(), testActor(), result.PurchaseID, "customer cancelled")
	require.NoError(t, err)

	p, err := store.GetPurchase(context.Background(), result.PurchaseID)
	require.NoError(t, err)
	require.Equal(t, StatusVoided, p.Status)
	require.NotNil(t, p.VoidedAt)

	// debt offset, stock untouched (never committed)
	deposits := store.walletEntriesOfType(wallet.TxDeposit)
	require.Len(t, deposits, 1)
	require.Equal(t, 1000.0, deposits[0].Amount)
	require.Equal(t, 10, store.stockQty[100])
	require.Equal(t, 0, store.pending[result.PurchaseID])
}

func TestVoidSaleCompletedRestoresStock(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 7, store.stockQty[100])

	err = svc.VoidSale(context.Background(), testActor(), result.PurchaseID, "wrong customer")
	require.NoError(t, err)
	require.Equal(t, 10, store.stockQty[100])

	err = svc.VoidSale(context.Background(), testActor(), result.PurchaseID, "again")
	require.ErrorIs(t, err, ErrPurchaseVoided)
}

func TestVoidSaleRejectsDeliveredPurchase(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 3}},
	})
	require.NoError(t, err)
	store.purchases[result.PurchaseID].DeliveryStatus = DeliveryDelivered

	err = svc.VoidSale(context.Background(), testActor(), result.PurchaseID, "changed mind")
	require.ErrorIs(t, err, ErrDelivered)

	// the goods left with the customer, so nothing may be restored
	require.Equal(t, 7, store.stockQty[100])
	p, err := store.GetPurchase(context.Background(), result.PurchaseID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, p.Status)
}

func TestSweepOverdueAppliesLateFeeOnce(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{
		InterestType: pricing.InterestFlat,
		InterestRate: 10,
		GraceDays:    5,
		MaxTenorDays: 180,
		LateFeeFixed: 20,
		LateFeeRate:  1,
	}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.walletEntries = nil
	store.overdue = []int64{result.PurchaseID}

	// pull the due date into the past
	p := store.purchases[result.PurchaseID]
	p.DueDate = time.Now().AddDate(0, 0, -10)

	swept, err := svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	p = store.purchases[result.PurchaseID]
	require.Equal(t, StatusOverdue, p.Status)
	// fee = 20 fixed + 1% of 1000 outstanding
	require.Equal(t, 1030.0, p.OutstandingBalance)
	require.Equal(t, 1130.0, p.TotalAmount)

	debits := store.walletEntriesOfType(wallet.TxPurchase)
	require.Len(t, debits, 1)
	require.Equal(t, 30.0, debits[0].Amount)

	// a second sweep never double-charges
	swept, err = svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, swept)
	require.Len(t, store.walletEntriesOfType(wallet.TxPurchase), 1)
	require.Equal(t, 1030.0, store.purchases[result.PurchaseID].OutstandingBalance)
}

func TestSweepOverdueRespectsGrace(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, GraceDays: 14, MaxTenorDays: 180}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.overdue = []int64{result.PurchaseID}
	store.purchases[result.PurchaseID].DueDate = time.Now().AddDate(0, 0, -7)

	swept, err := svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 0, swept)
	require.Equal(t, StatusActive, store.purchases[result.PurchaseID].Status)
}

func TestSweepOverdueDefaultsStalePurchases(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, GraceDays: 0, MaxTenorDays: 90}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.overdue = []int64{result.PurchaseID}
	store.purchases[result.PurchaseID].DueDate = time.Now().AddDate(0, 0, -120)

	swept, err := svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, swept)
	require.Equal(t, StatusDefaulted, store.purchases[result.PurchaseID].Status)
}

func TestSweepOverdueGraceDoesNotExtendDefault(t *testing.T) {
	store := newMemoryStore()
	store.policy = &pricing.Policy{InterestType: pricing.InterestFlat, InterestRate: 10, GraceDays: 30, MaxTenorDays: 90}
	svc := newTestService(store)

	result := createLayaway(t, store, svc, 100)
	store.overdue = []int64{result.PurchaseID}
	// 100 days past due: beyond the 90-day default horizon even though
	// grace plus tenor would only put it 120 days out
	store.purchases[result.PurchaseID].DueDate = time.Now().AddDate(0, 0, -100)

	swept, err := svc.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, swept)
	require.Equal(t, StatusDefaulted, store.purchases[result.PurchaseID].Status)
}

func TestGeneratePurchaseInvoiceIsSingleUse(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.NoError(t, err)

	inv, err := svc.GeneratePurchaseInvoice(context.Background(), testActor(), result.PurchaseID)
	require.NoError(t, err)
	require.NotEmpty(t, inv.Number)

	_, err = svc.GeneratePurchaseInvoice(context.Background(), testActor(), result.PurchaseID)
	require.ErrorIs(t, err, document.ErrInvoiceExists)
}

func TestGenerateWaybillFailsWhenPresent(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	// CASH sale already produced a waybill at the counter
	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.GenerateWaybill(context.Background(), testActor(), result.PurchaseID)
	require.ErrorIs(t, err, document.ErrWaybillExists)
}

func TestGetPurchaseForeignBusiness(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)

	result, err := svc.CreateSale(context.Background(), testActor(), CreateSaleRequest{
		ShopID:       1,
		CustomerID:   55,
		PurchaseType: pricing.PurchaseTypeCash,
		Items:        []SaleItemRequest{{ProductID: 100, Quantity: 1}},
	})
	require.NoError(t, err)

	stranger := &shared.Actor{UserID: 99, BusinessID: 20}
	_, err = svc.GetPurchase(context.Background(), stranger, result.PurchaseID)
	require.ErrorIs(t, err, shared.ErrScopeViolation)
}
