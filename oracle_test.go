package aiur

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

func TestOracleDefaults(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)
	assert.Equal(t, "test oracle", o.Name())

	rate, err := o.Rate()
	assert.NoError(t, err)
	assert.Equal(t, InitialOracleRate, rate)

	minWei, err := o.MinWeiAmount()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(DefaultMinWeiAmount), minWei)
}

func TestOracleSetRate(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	err := o.SetRate(testKycAdmin, 50000)
	assert.ErrorIs(t, err, schema.ErrUnauthorized)

	err = o.SetRate(testOwner, 0)
	assert.ErrorIs(t, err, schema.ErrZeroAmount)

	assert.NoError(t, o.SetRate(testOwner, 50000))
	rate, err := o.Rate()
	assert.NoError(t, err)
	assert.Equal(t, uint64(50000), rate)
}

func TestOracleSetMinWeiAmount(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	err := o.SetMinWeiAmount(testOwner, big.NewInt(0))
	assert.ErrorIs(t, err, schema.ErrZeroAmount)

	assert.NoError(t, o.SetMinWeiAmount(testOwner, big.NewInt(2000)))
	minWei, err := o.MinWeiAmount()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), minWei)
}

func TestOraclePause(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	assert.ErrorIs(t, o.Pause(testKycAdmin), schema.ErrUnauthorized)
	assert.NoError(t, o.Pause(testOwner))
	assert.True(t, o.IsPaused())

	_, err := o.Rate()
	assert.ErrorIs(t, err, schema.ErrContractPaused)
	_, err = o.MinWeiAmount()
	assert.ErrorIs(t, err, schema.ErrContractPaused)
	_, err = o.CalcWeiForTokensAmount(big.NewInt(100))
	assert.ErrorIs(t, err, schema.ErrContractPaused)

	assert.NoError(t, o.Unpause(testOwner))
	assert.False(t, o.IsPaused())
}

func TestOracleCalcWeiForTokensAmount(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	// 100000 / 1000 = 100 tokens per ether: a whole token costs 1e16 wei
	wei, err := o.CalcWeiForTokensAmount(schema.Tokens(1))
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1e16), wei)

	wei, err = o.CalcWeiForTokensAmount(schema.Tokens(100))
	assert.NoError(t, err)
	assert.Equal(t, schema.Ether(1), wei)

	_, err = o.CalcWeiForTokensAmount(big.NewInt(0))
	assert.ErrorIs(t, err, schema.ErrZeroAmount)
	_, err = o.CalcWeiForTokensAmount(nil)
	assert.ErrorIs(t, err, schema.ErrZeroAmount)
}

func TestOracleConvertRoundsUpByOneWei(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	// 7 * 1000 / 100000 = 0.07 rounds up to 1 wei
	wei, err := o.ConvertTokensAmountAtRate(big.NewInt(7), InitialOracleRate)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1), wei)

	// exact division stays exact
	wei, err = o.ConvertTokensAmountAtRate(big.NewInt(100), InitialOracleRate)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1), wei)

	// 101 * 1000 / 100000 = 1.01 rounds up to 2 wei
	wei, err = o.ConvertTokensAmountAtRate(big.NewInt(101), InitialOracleRate)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(2), wei)
}

func TestOracleConvertAtCustomRate(t *testing.T) {
	o := NewExchangeOracle("test oracle", testOwner, nil)

	// halving the rate doubles the wei owed
	full, err := o.ConvertTokensAmountAtRate(schema.Tokens(100), InitialOracleRate)
	assert.NoError(t, err)
	half, err := o.ConvertTokensAmountAtRate(schema.Tokens(100), InitialOracleRate/2)
	assert.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(full, big.NewInt(2)), half)

	_, err = o.ConvertTokensAmountAtRate(schema.Tokens(100), 0)
	assert.ErrorIs(t, err, schema.ErrZeroAmount)
}
