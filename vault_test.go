package aiur

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func TestVaultDepositAndClose(t *testing.T) {
	v := NewRefundVault(testWallet)
	assert.Equal(t, VaultActive, v.State())

	assert.NoError(t, v.Deposit(userA, schema.Ether(3)))
	assert.NoError(t, v.Deposit(userA, schema.Ether(2)))
	assert.NoError(t, v.Deposit(userB, schema.Ether(1)))
	assert.Equal(t, schema.Ether(5), v.Deposited(userA))
	assert.Equal(t, schema.Ether(6), v.Total())

	assert.ErrorIs(t, v.Deposit(userA, big.NewInt(0)), schema.ErrZeroAmount)

	forwarded, err := v.Close()
	assert.NoError(t, err)
	assert.Equal(t, schema.Ether(6), forwarded)
	assert.Equal(t, VaultClosed, v.State())

	// a closed vault accepts nothing
	assert.ErrorIs(t, v.Deposit(userA, schema.Ether(1)), schema.ErrAlreadyFinalized)
	assert.ErrorIs(t, v.EnableRefunds(), schema.ErrAlreadyFinalized)
	_, err = v.Close()
	assert.ErrorIs(t, err, schema.ErrAlreadyFinalized)
}

func TestVaultRefundDeduction(t *testing.T) {
	v := NewRefundVault(testWallet)
	assert.NoError(t, v.Deposit(userA, schema.Ether(10)))

	_, _, err := v.Refund(userA)
	assert.ErrorIs(t, err, schema.ErrNotRefunding)

	assert.NoError(t, v.EnableRefunds())
	refunded, deducted, err := v.Refund(userA)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(3e17), deducted)
	assert.Equal(t, new(big.Int).Sub(schema.Ether(10), big.NewInt(3e17)), refunded)
	assert.Zero(t, v.Deposited(userA).Sign())

	// settled claims and unknown investors are no-ops
	refunded, deducted, err = v.Refund(userA)
	assert.NoError(t, err)
	assert.Zero(t, refunded.Sign())
	assert.Zero(t, deducted.Sign())

	refunded, _, err = v.Refund(userB)
	assert.NoError(t, err)
	assert.Zero(t, refunded.Sign())
}
