package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{ProductName: "Standing Fan", Available: 3}
	assert.Equal(t, "Insufficient stock for Standing Fan. Only 3 available.", err.Error())
}

func TestInsufficientStockErrorAs(t *testing.T) {
	var err error = &InsufficientStockError{ProductName: "Fridge", Available: 0}
	var ise *InsufficientStockError
	assert.ErrorAs(t, err, &ise)
	assert.Equal(t, 0, ise.Available)
}
