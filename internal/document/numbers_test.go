package document

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaybillNumberFormat(t *testing.T) {
	at := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	n := WaybillNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^WB-2025-[0-9A-F]{8}$`), n)
}

func TestProgressInvoiceNumberFormat(t *testing.T) {
	at := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	n := ProgressInvoiceNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^INV-2026-[0-9A-F]{8}$`), n)
}

func TestPurchaseInvoiceNumberFormat(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^INV-ACME-\d{6}$`), PurchaseInvoiceNumber("acme"))
	assert.Regexp(t, regexp.MustCompile(`^INV-GEN-\d{6}$`), PurchaseInvoiceNumber("  "))
}

func TestNumberCandidatesDiffer(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		n := WaybillNumber(now)
		assert.False(t, seen[n], "suffixes must differ across retries")
		seen[n] = true
	}
}
