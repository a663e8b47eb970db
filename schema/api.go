package schema

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}

type RespUser struct {
	Address             string `json:"address"`
	KYCStatus           string `json:"kycStatus"`
	GenerationRatio     uint64 `json:"generationRatio"`
	Blacklisted         bool   `json:"blacklisted"`
	Banned              bool   `json:"banned"`
	IsExchange          bool   `json:"isExchange"`
	PolicyAccepted      bool   `json:"policyAccepted"`
	LastTransactionTime int64  `json:"lastTransactionTime"`
}

type RespBalance struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // base units
	Display string `json:"display"` // whole tokens, decimal string
}

type RespLimits struct {
	Tier       string `json:"tier"`
	Daily      string `json:"daily"`
	Weekly     string `json:"weekly"`
	Monthly    string `json:"monthly"`
	MaxBalance string `json:"maxBalance"`
}

type RespSale struct {
	WeiRaised    string `json:"weiRaised"`
	WeiDisplay   string `json:"weiDisplay"` // ether, decimal string
	HardCap      string `json:"hardCap"`
	SoftCap      string `json:"softCap"`
	CurrentRate  uint64 `json:"currentRate"`
	Presale      bool   `json:"presale"`
	HasEnded     bool   `json:"hasEnded"`
	Finalized    bool   `json:"finalized"`
	Refunding    bool   `json:"refunding"`
	BountyMinted string `json:"bountyMinted"`
}

type ReqTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"` // base units
}

type ReqPurchase struct {
	Beneficiary string `json:"beneficiary"`
	WeiAmount   string `json:"weiAmount"`
}

type ReqLimit struct {
	Tier  string `json:"tier"`
	Kind  string `json:"kind"` // "daily", "weekly", "monthly", "max_balance"
	Value string `json:"value"`
}

type ReqWhitelist struct {
	Users []string `json:"users"`
	Rate  uint64   `json:"rate"` // presale special rate; ignored for public lists
}
