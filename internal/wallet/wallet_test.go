package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBalance(t *testing.T) {
	after, err := nextBalance(100, TxDeposit, 40)
	require.NoError(t, err)
	assert.Equal(t, 140.0, after)

	after, err = nextBalance(100, TxPurchase, 250)
	require.NoError(t, err)
	assert.Equal(t, -150.0, after, "debt is a legitimate negative balance")

	_, err = nextBalance(0, TxType("REFUND"), 10)
	assert.Error(t, err)
}

func TestApplyRejectsNonPositiveAmounts(t *testing.T) {
	_, err := Apply(t.Context(), nil, Entry{CustomerID: 1, Type: TxDeposit, Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Apply(t.Context(), nil, Entry{CustomerID: 1, Type: TxPurchase, Amount: -5})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
