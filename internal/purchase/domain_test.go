package purchase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sankofa-retail/sankofa/internal/pricing"
)

func TestStatusOnCreate(t *testing.T) {
	cases := []struct {
		name         string
		purchaseType pricing.PurchaseType
		outstanding  float64
		downPayment  float64
		want         Status
	}{
		{"cash always completed", pricing.PurchaseTypeCash, 0, 0, StatusCompleted},
		{"cash ignores inputs", pricing.PurchaseTypeCash, 500, 100, StatusCompleted},
		{"layaway no deposit", pricing.PurchaseTypeLayaway, 1000, 0, StatusPending},
		{"layaway with deposit", pricing.PurchaseTypeLayaway, 900, 100, StatusActive},
		{"credit paid in full", pricing.PurchaseTypeCredit, 0, 1000, StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, statusOnCreate(tc.purchaseType, tc.outstanding, tc.downPayment))
		})
	}
}

func TestApplyConfirmedPayment(t *testing.T) {
	p := &Purchase{
		Status:             StatusPending,
		TotalAmount:        1000,
		AmountPaid:         0,
		OutstandingBalance: 1000,
	}

	completed := ApplyConfirmedPayment(p, 400)
	require.False(t, completed)
	require.Equal(t, StatusActive, p.Status)
	require.Equal(t, 400.0, p.AmountPaid)
	require.Equal(t, 600.0, p.OutstandingBalance)

	completed = ApplyConfirmedPayment(p, 600)
	require.True(t, completed)
	require.Equal(t, StatusCompleted, p.Status)
	require.Equal(t, 0.0, p.OutstandingBalance)

	// a completed purchase never reports completion twice
	completed = ApplyConfirmedPayment(p, 50)
	require.False(t, completed)
	require.Equal(t, StatusCompleted, p.Status)
	require.Equal(t, 0.0, p.OutstandingBalance)
}

func TestTenorDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Purchase{StartDate: start, DueDate: start.AddDate(0, 0, 90)}
	require.Equal(t, 90, p.TenorDays())

	p.DueDate = start
	require.Equal(t, 0, p.TenorDays())
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusVoided.Terminal())
	require.False(t, StatusActive.Terminal())
	require.False(t, StatusOverdue.Terminal())
}
