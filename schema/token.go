package schema

import (
	"math/big"
)

const (
	TokenName     = "AIUR Token"
	TokenSymbol   = "AIUR"
	TokenDecimals = 18
)

// Ether returns n ether expressed in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// Tokens returns n whole tokens expressed in base units.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// LedgerSnapshot is the persisted projection of the token ledger, written
// by the snapshot job and used to rebuild caches after a restart.
type LedgerSnapshot struct {
	Height      uint64            `json:"height"` // monotonic snapshot sequence
	Timestamp   int64             `json:"timestamp"`
	TotalSupply string            `json:"totalSupply"`
	Balances    map[string]string `json:"balances"` // addr hex -> base units
}

// CrowdsaleSnapshot mirrors the sale state the API serves.
type CrowdsaleSnapshot struct {
	WeiRaised        string `json:"weiRaised"`
	PresaleCollected string `json:"presaleCollected"`
	BountyMinted     string `json:"bountyMinted"`
	Finalized        bool   `json:"finalized"`
	Refunding        bool   `json:"refunding"`
	CurrentRate      uint64 `json:"currentRate"`
}
