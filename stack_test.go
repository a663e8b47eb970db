package aiur

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/theirisai/ICO-contracts/schema"
)

var (
	testOwner    = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	testKycAdmin = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	testWallet   = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	testLister   = common.HexToAddress("0x0000000000000000000000000000000000000a04")
	testRefunder = common.HexToAddress("0x0000000000000000000000000000000000000a05")

	userA = common.HexToAddress("0x0000000000000000000000000000000000000b01")
	userB = common.HexToAddress("0x0000000000000000000000000000000000000b02")
	userC = common.HexToAddress("0x0000000000000000000000000000000000000b03")
)

type testStack struct {
	oracle  *ExchangeOracle
	factory *UserFactory
	manager *UserManager
	kyc     *KYCVerification
	hook    *HookOperator
	token   *AIURToken
}

// newTestStack wires the registry, compliance and ledger engines the way
// the service does on boot, with the owner keeping token ownership and
// the ledger unpaused.
func newTestStack(t *testing.T, projectedSupply *big.Int) *testStack {
	oracle := NewExchangeOracle("test oracle", testOwner, nil)
	factory := NewUserFactory(testOwner, nil)
	manager := NewUserManager(testOwner, factory)
	kyc := NewKYCVerification(testKycAdmin, factory, nil)
	hook := NewHookOperator(testOwner, kyc, factory, manager, projectedSupply, testWallet, nil)
	token := NewAIURToken(testOwner, testRefunder, hook, oracle, nil)

	assert.NoError(t, factory.SetUserCreator(testOwner, testOwner))
	assert.NoError(t, factory.SetUserManager(testOwner, manager.Address()))
	assert.NoError(t, factory.SetKYCVerification(testOwner, kyc.Address()))
	assert.NoError(t, factory.SetHookOperator(testOwner, hook.Address()))
	assert.NoError(t, manager.SetHookOperator(testOwner, hook.Address()))
	assert.NoError(t, hook.BindToken(testOwner, token.Address(), token.BalanceOf, token.TaxTransfer))
	assert.NoError(t, hook.SetOverBalanceLimitHolder(testOwner, testWallet, true))

	return &testStack{
		oracle:  oracle,
		factory: factory,
		manager: manager,
		kyc:     kyc,
		hook:    hook,
		token:   token,
	}
}

// setClock pins the injectable clocks of the registry engines.
func (s *testStack) setClock(clock *time.Time) {
	s.factory.now = func() time.Time { return *clock }
	s.manager.now = func() time.Time { return *clock }
}

func (s *testStack) createVerified(t *testing.T, addr common.Address) {
	assert.NoError(t, s.factory.CreateNewUser(testOwner, addr, schema.KYCVerified))
}
