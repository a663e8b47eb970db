package aiur

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/theirisai/ICO-contracts/schema"
)

func (a *Aiur) runJobs() {
	a.scheduler.Every(30).Seconds().SingletonMode().Do(a.updateCache)
	a.scheduler.Every(1).Minute().SingletonMode().Do(a.runTaxationIfDue)
	a.scheduler.Every(5).Minute().SingletonMode().Do(a.saveLedgerSnapshot)

	a.scheduler.StartAsync()
}

func (a *Aiur) updateCache() {
	supply := a.token.TotalSupply()
	a.cache.UpdateTotalSupply(supply)
	metricTotalSupply(supply)

	sale := a.crowdsale.Snapshot()
	a.cache.UpdateSaleState(sale)
	metricWeiRaised(a.crowdsale.WeiRaised())

	a.cache.UpdateUserCount(len(a.userFactory.AllUsers()))
}

// runTaxationIfDue sweeps the active users once per taxation period,
// using the interval from the runtime config when set.
func (a *Aiur) runTaxationIfDue() {
	a.taxLocker.Lock()
	defer a.taxLocker.Unlock()

	period := a.userManager.TaxationPeriod()
	if cfgPeriod := a.config.TaxationPeriod(); cfgPeriod > 0 {
		period = cfgPeriod
	}
	if time.Since(a.lastTaxation) < period {
		return
	}

	users := a.userManager.ActiveUsers()
	if len(users) == 0 {
		a.lastTaxation = time.Now()
		return
	}
	debits, err := a.hook.RunTaxation(a.svcCfg.Owner, users)
	if err != nil {
		log.Error("taxation sweep", "err", err, "users", len(users))
		return
	}
	a.lastTaxation = time.Now()
	log.Info("taxation sweep done", "users", len(users), "debits", len(debits))
}

// saveLedgerSnapshot persists the balances, the sale state and every
// user record; record writes fan out over the worker pool.
func (a *Aiur) saveLedgerSnapshot() {
	balances := a.token.Balances()
	snap := make(map[string]string, len(balances))
	for addr, bal := range balances {
		snap[addr.Hex()] = bal.String()
	}

	a.taxLocker.Lock()
	a.snapshotHeight++
	height := a.snapshotHeight
	a.taxLocker.Unlock()

	ledger := schema.LedgerSnapshot{
		Height:      height,
		Timestamp:   time.Now().Unix(),
		TotalSupply: a.token.TotalSupply().String(),
		Balances:    snap,
	}
	if err := a.store.SaveLedgerSnapshot(ledger); err != nil {
		log.Error("save ledger snapshot", "err", err, "height", height)
		return
	}
	if by, err := json.Marshal(ledger); err == nil {
		if err := a.localCache.Cache.Set(latestSnapshotCacheKey, by); err != nil {
			log.Warn("cache ledger snapshot", "err", err)
		}
	}

	if err := a.store.SaveCrowdsaleState(a.crowdsale.Snapshot()); err != nil {
		log.Error("save crowdsale state", "err", err)
	}

	var wg sync.WaitGroup
	for _, addr := range a.userFactory.AllUsers() {
		u, err := a.userFactory.GetUser(addr)
		if err != nil {
			continue
		}
		wg.Add(1)
		rec := u
		if err := a.pubPool.Submit(func() {
			defer wg.Done()
			if err := a.store.SaveUserRecord(rec); err != nil {
				log.Error("save user record", "err", err, "user", rec.Address.Hex())
			}
		}); err != nil {
			wg.Done()
			log.Error("submit user record save", "err", err)
		}
	}
	wg.Wait()
}
