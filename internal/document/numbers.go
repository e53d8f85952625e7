package document

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document numbers are cosmetic but their uniqueness is load-bearing. Each
// format carries a random component so a collision can be retried with a
// fresh candidate instead of racing a count-then-format sequence.

// WaybillNumber returns a WB-<year>-<suffix> candidate.
func WaybillNumber(at time.Time) string {
	return fmt.Sprintf("WB-%d-%s", at.Year(), randomSuffix())
}

// ProgressInvoiceNumber returns an INV-<year>-<suffix> candidate.
func ProgressInvoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%d-%s", at.Year(), randomSuffix())
}

// PurchaseInvoiceNumber returns an INV-<businessPrefix>-###### candidate.
func PurchaseInvoiceNumber(businessPrefix string) string {
	prefix := strings.ToUpper(strings.TrimSpace(businessPrefix))
	if prefix == "" {
		prefix = "GEN"
	}
	return fmt.Sprintf("INV-%s-%06d", prefix, randomSeq())
}

func randomSuffix() string {
	id := uuid.New().String()
	return strings.ToUpper(id[:8])
}

func randomSeq() int {
	id := uuid.New()
	return int(binary.BigEndian.Uint32(id[:4]) % 1000000)
}
