package aiur

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	icommon "github.com/theirisai/ICO-contracts/common"
	"github.com/theirisai/ICO-contracts/schema"
)

func (a *Aiur) runAPI(port string) {
	r := a.engine
	r.Use(icommon.CORSMiddleware())
	if a.config != nil {
		r.Use(icommon.LimiterMiddleware(600, "M", a.config.GetIPWhiteList()))
	}
	v1 := r.Group("/")
	{
		v1.GET("/info", a.getInfo)
		v1.GET("/sale", a.getSale)
		v1.GET("/balance/:address", a.getBalance)
		v1.GET("/user/:address", a.getUser)
		v1.GET("/user/:address/orders", a.getUserOrders)
		v1.GET("/user/:address/transfers", a.getUserTransfers)
		v1.GET("/limits/:tier", a.getLimits)
		v1.GET("/snapshot", a.getSnapshot)
		v1.GET("/rate", a.getRate)
		v1.GET("/rate/:address", a.getBuyerRate)

		v1.POST("/buy", a.postBuy)
		v1.POST("/refund/:address", a.postRefund)
		v1.POST("/transfer", a.postTransfer)

		// admin surface; the caller identity comes from the X-Caller
		// header and is enforced by the engines' role checks
		admin := r.Group("/admin")
		{
			admin.POST("/oracle/rate/:rate", a.postOracleRate)
			admin.POST("/oracle/minwei/:amount", a.postOracleMinWei)
			admin.POST("/limits", a.postLimit)
			admin.POST("/users", a.postCreateUsers)
			admin.POST("/users/:address/kyc/:tier", a.postKYCStatus)
			admin.POST("/users/:address/blacklist/:flag", a.postBlacklist)
			admin.POST("/users/:address/ban", a.postBan)
			admin.POST("/whitelist/presale", a.postPresaleWhitelist)
			admin.POST("/whitelist/public", a.postPublicWhitelist)
			admin.DELETE("/whitelist/presale/:address", a.deletePresaleWhitelist)
			admin.DELETE("/whitelist/public/:address", a.deletePublicWhitelist)
			admin.POST("/sale/finalize", a.postFinalize)
			admin.POST("/sale/bounty", a.postBounty)
			admin.POST("/sale/presale/extend/:weeks", a.postExtendPresale)
			admin.POST("/vesting/claim/first", a.postClaimFirstTranche)
			admin.POST("/vesting/claim/second", a.postClaimSecondTranche)
			admin.POST("/vesting/overdeposit", a.postRecordOverDeposit)
			admin.POST("/vesting/overdeposit/:address/refund", a.postRefundOverDeposits)
		}
	}

	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (a *Aiur) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        a.token.Name(),
		"symbol":      a.token.Symbol(),
		"decimals":    a.token.Decimals(),
		"totalSupply": a.cache.GetTotalSupply().String(),
		"users":       a.cache.GetUserCount(),
		"paused":      a.token.IsPaused(),
	})
}

func (a *Aiur) getSale(c *gin.Context) {
	sale := a.cache.GetSaleState()
	weiRaised, _ := new(big.Int).SetString(sale.WeiRaised, 10)
	if weiRaised == nil {
		weiRaised = new(big.Int)
	}
	c.JSON(http.StatusOK, schema.RespSale{
		WeiRaised:    sale.WeiRaised,
		WeiDisplay:   decimal.NewFromBigInt(weiRaised, -18).String(),
		HardCap:      a.crowdsale.HardCap().String(),
		SoftCap:      a.crowdsale.SoftCap().String(),
		CurrentRate:  sale.CurrentRate,
		Presale:      a.crowdsale.InPresale(),
		HasEnded:     a.crowdsale.HasEnded(),
		Finalized:    sale.Finalized,
		Refunding:    sale.Refunding,
		BountyMinted: sale.BountyMinted,
	})
}

func (a *Aiur) getBalance(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	bal := a.token.BalanceOf(addr)
	c.JSON(http.StatusOK, schema.RespBalance{
		Address: addr.Hex(),
		Balance: bal.String(),
		Display: decimal.NewFromBigInt(bal, -18).String(),
	})
}

func (a *Aiur) getUser(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	u, err := a.userFactory.GetUser(addr)
	if err != nil {
		notFoundResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, schema.RespUser{
		Address:             u.Address.Hex(),
		KYCStatus:           u.KYCStatus.String(),
		GenerationRatio:     u.GenerationRatio,
		Blacklisted:         u.Blacklisted,
		Banned:              u.Banned,
		IsExchange:          u.IsExchange,
		PolicyAccepted:      u.Policy.Accepted(),
		LastTransactionTime: u.LastTransactionTime.Unix(),
	})
}

func (a *Aiur) getUserOrders(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	cursorId, _ := strconv.ParseInt(c.DefaultQuery("cursorId", "0"), 10, 64)
	orders, err := a.wdb.GetOrdersByInvestor(addr.Hex(), cursorId, 200)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (a *Aiur) getUserTransfers(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	cursorId, _ := strconv.ParseInt(c.DefaultQuery("cursorId", "0"), 10, 64)
	records, err := a.wdb.GetTransfersByUser(addr.Hex(), cursorId, 200)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, records)
}

const latestSnapshotCacheKey = "ledger-snapshot-latest"

func (a *Aiur) getSnapshot(c *gin.Context) {
	if by, err := a.localCache.Cache.Get(latestSnapshotCacheKey); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", by)
		return
	}
	snap, err := a.store.LoadLatestLedgerSnapshot()
	if err != nil {
		notFoundResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *Aiur) getLimits(c *gin.Context) {
	tier, ok := parseTier(c.Param("tier"))
	if !ok {
		errorResponse(c, schema.ErrNotFound.Error())
		return
	}
	lim := a.kyc.Limits(tier)
	if lim == nil {
		c.JSON(http.StatusOK, schema.RespLimits{Tier: tier.String()})
		return
	}
	c.JSON(http.StatusOK, schema.RespLimits{
		Tier:       tier.String(),
		Daily:      lim.Daily.String(),
		Weekly:     lim.Weekly.String(),
		Monthly:    lim.Monthly.String(),
		MaxBalance: lim.MaxBalance.String(),
	})
}

func (a *Aiur) getRate(c *gin.Context) {
	rate, err := a.oracle.Rate()
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	minWei, err := a.oracle.MinWeiAmount()
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate": rate, "minWeiAmount": minWei.String()})
}

func (a *Aiur) getBuyerRate(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate": a.crowdsale.CurrentRate(addr)})
}

func (a *Aiur) postBuy(c *gin.Context) {
	req := schema.ReqPurchase{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	beneficiary, ok := parseAddr(req.Beneficiary)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	wei, ok := new(big.Int).SetString(req.WeiAmount, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	tokens, err := a.crowdsale.BuyTokens(beneficiary, wei)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens.String()})
}

func (a *Aiur) postRefund(c *gin.Context) {
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	refunded, err := a.crowdsale.ClaimRefund(addr)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunded": refunded.String()})
}

func (a *Aiur) postTransfer(c *gin.Context) {
	req := schema.ReqTransfer{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	from, ok := parseAddr(req.From)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	to, ok := parseAddr(req.To)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	if err := a.token.Transfer(from, to, amount); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postOracleRate(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	rate, err := strconv.ParseUint(c.Param("rate"), 10, 64)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	if err := a.oracle.SetRate(caller, rate); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postOracleMinWei(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	amount, ok := new(big.Int).SetString(c.Param("amount"), 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	if err := a.oracle.SetMinWeiAmount(caller, amount); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postExtendPresale(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	weeks, err := strconv.Atoi(c.Param("weeks"))
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	if err := a.crowdsale.ExtendPresalesPeriod(caller, time.Duration(weeks)*7*24*time.Hour); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) deletePresaleWhitelist(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.crowdsale.RemovePresaleSpecialUser(caller, addr); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) deletePublicWhitelist(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.crowdsale.RemovePublicSpecialUser(caller, addr); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postLimit(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := schema.ReqLimit{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	tier, ok := parseTier(req.Tier)
	if !ok {
		errorResponse(c, schema.ErrNotFound.Error())
		return
	}
	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	var err error
	switch req.Kind {
	case "daily":
		err = a.kyc.SetDailyLimit(caller, tier, value)
	case "weekly":
		err = a.kyc.SetWeeklyLimit(caller, tier, value)
	case "monthly":
		err = a.kyc.SetMonthlyLimit(caller, tier, value)
	case "max_balance":
		err = a.kyc.SetMaxBalanceLimit(caller, tier, value)
	default:
		err = schema.ErrNotFound
	}
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postCreateUsers(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := struct {
		Users []string `json:"users"`
		Tier  string   `json:"tier"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	tier, ok := parseTier(req.Tier)
	if !ok {
		errorResponse(c, schema.ErrNotFound.Error())
		return
	}
	addrs := make([]common.Address, 0, len(req.Users))
	tiers := make([]schema.KYCStatus, 0, len(req.Users))
	for _, u := range req.Users {
		addr, ok := parseAddr(u)
		if !ok {
			errorResponse(c, schema.ErrInvalidAddress.Error())
			return
		}
		addrs = append(addrs, addr)
		tiers = append(tiers, tier)
	}
	if err := a.userFactory.CreateMultipleUsers(caller, addrs, tiers); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postKYCStatus(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	tier, ok := parseTier(c.Param("tier"))
	if !ok {
		errorResponse(c, schema.ErrNotFound.Error())
		return
	}
	if err := a.kyc.UpdateUserKYCStatus(caller, addr, tier); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postBlacklist(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	flag := c.Param("flag") == "true"
	if err := a.kyc.SetUserBlacklistedStatus(caller, addr, flag); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postBan(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	addr, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.kyc.BanUser(caller, addr); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postPresaleWhitelist(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := schema.ReqWhitelist{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	addrs, ok := parseAddrs(req.Users)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.crowdsale.AddMultiplePresaleSpecialUsers(caller, addrs, req.Rate); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postPublicWhitelist(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := schema.ReqWhitelist{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	addrs, ok := parseAddrs(req.Users)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.crowdsale.AddMultiplePublicSpecialUsers(caller, addrs); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postFinalize(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	if err := a.crowdsale.Finalize(caller); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, a.crowdsale.Snapshot())
}

func (a *Aiur) postBounty(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	to, ok := parseAddr(req.To)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	if err := a.crowdsale.CreateBountyToken(caller, to, amount); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postClaimFirstTranche(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	amount, err := a.vesting.ClaimFirstTranche(caller)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": amount.String()})
}

func (a *Aiur) postClaimSecondTranche(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	amount, err := a.vesting.ClaimSecondTranche(caller)
	if err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"claimed": amount.String()})
}

func (a *Aiur) postRecordOverDeposit(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := struct {
		Investor string `json:"investor"`
		Tokens   string `json:"tokens"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	investor, ok := parseAddr(req.Investor)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	tokens, ok := new(big.Int).SetString(req.Tokens, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	if err := a.vesting.RecordOverDeposit(caller, investor, tokens); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (a *Aiur) postRefundOverDeposits(c *gin.Context) {
	caller, ok := callerAddr(c)
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	investor, ok := parseAddr(c.Param("address"))
	if !ok {
		errorResponse(c, schema.ErrInvalidAddress.Error())
		return
	}
	req := struct {
		Rate    uint64 `json:"rate"`
		Payment string `json:"payment"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	payment, ok := new(big.Int).SetString(req.Payment, 10)
	if !ok {
		errorResponse(c, schema.ErrZeroAmount.Error())
		return
	}
	if err := a.vesting.RefundOverDeposits(caller, investor, req.Rate, payment); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func callerAddr(c *gin.Context) (common.Address, bool) {
	return parseAddr(c.GetHeader("X-Caller"))
}

func parseAddr(s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseAddrs(ss []string) ([]common.Address, bool) {
	addrs := make([]common.Address, 0, len(ss))
	for _, s := range ss {
		addr, ok := parseAddr(s)
		if !ok {
			return nil, false
		}
		addrs = append(addrs, addr)
	}
	return addrs, true
}

func parseTier(s string) (schema.KYCStatus, bool) {
	switch s {
	case "anonymous", "0":
		return schema.KYCAnonymous, true
	case "semi_verified", "1":
		return schema.KYCSemiVerified, true
	case "verified", "2":
		return schema.KYCVerified, true
	case "undefined", "3":
		return schema.KYCUndefined, true
	}
	return schema.KYCUndefined, false
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func notFoundResponse(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
