package aiur

import (
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	bcache "github.com/theirisai/ICO-contracts/cache"
	icommon "github.com/theirisai/ICO-contracts/common"
	"github.com/theirisai/ICO-contracts/config"
	"github.com/theirisai/ICO-contracts/schema"
)

var log = icommon.NewLog("aiur")

// ServiceConfig carries the platform accounts and the sale parameters.
type ServiceConfig struct {
	Owner    common.Address
	Wallet   common.Address
	KycAdmin common.Address
	Lister   common.Address
	Refunder common.Address

	Claimer25 common.Address
	Claimer75 common.Address

	SaleStart  time.Time
	SoftCapEth int64
	HardCapEth int64
}

type Aiur struct {
	store  *Store
	engine *gin.Engine

	scheduler  *gocron.Scheduler
	cache      *Cache
	localCache *bcache.Cache
	config     *config.Config
	wdb        *Wdb

	kwriters map[string]*KWriter
	pubPool  *ants.Pool

	oracle      *ExchangeOracle
	userFactory *UserFactory
	userManager *UserManager
	kyc         *KYCVerification
	hook        *HookOperator
	token       *AIURToken
	crowdsale   *ICOCrowdsale
	vesting     *Vesting

	svcCfg ServiceConfig

	taxLocker      sync.Mutex
	lastTaxation   time.Time
	snapshotHeight uint64
}

func New(
	boltDirPath, mySqlDsn string, sqliteDir string, useSqlite bool,
	useS3 bool, s3AccKey, s3SecretKey, s3BucketPrefix, s3Region, s3Endpoint string,
	kafkaUri string, enableKafka bool,
	svcCfg ServiceConfig,
) *Aiur {
	var err error
	KVDb := &Store{}
	if useS3 {
		KVDb, err = NewS3Store(s3AccKey, s3SecretKey, s3Region, s3BucketPrefix, s3Endpoint)
	} else {
		KVDb, err = NewBoltStore(boltDirPath)
	}
	if err != nil {
		panic(err)
	}

	wdb := &Wdb{}
	if useSqlite {
		wdb = NewSqliteDb(sqliteDir)
	} else {
		wdb = NewMysqlDb(mySqlDsn)
	}
	if err = wdb.Migrate(); err != nil {
		panic(err)
	}

	pubPool, err := ants.NewPool(20)
	if err != nil {
		panic(err)
	}

	localCache, err := bcache.NewLocalCache(time.Minute * 10)
	if err != nil {
		panic(err)
	}

	a := &Aiur{
		store:      KVDb,
		engine:     gin.Default(),
		scheduler:  gocron.NewScheduler(time.UTC),
		cache:      NewCache(),
		localCache: localCache,
		config:     config.New(mySqlDsn, sqliteDir, useSqlite),
		wdb:        wdb,
		pubPool:    pubPool,
		svcCfg:     svcCfg,
	}

	if enableKafka {
		kwriters, err := NewKWriters(kafkaUri)
		if err != nil {
			panic(err)
		}
		a.kwriters = kwriters
	}

	a.buildEngines()
	return a
}

// buildEngines wires the contract family: registry roles point at the
// engine identities, the ledger starts paused and owned by the sale.
func (a *Aiur) buildEngines() {
	cfg := a.svcCfg
	owner := cfg.Owner

	a.oracle = NewExchangeOracle("AIUR Oracle", owner, a)
	a.userFactory = NewUserFactory(owner, a)
	a.userManager = NewUserManager(owner, a.userFactory)
	a.kyc = NewKYCVerification(cfg.KycAdmin, a.userFactory, a)

	hardCapWei := schema.Ether(cfg.HardCapEth)
	projectedSupply := new(big.Int).Mul(hardCapWei, new(big.Int).SetUint64(RegularRate))
	a.hook = NewHookOperator(owner, a.kyc, a.userFactory, a.userManager, projectedSupply, cfg.Wallet, a)

	a.token = NewAIURToken(owner, cfg.Refunder, a.hook, a.oracle, a)

	cs, err := NewICOCrowdsale(CrowdsaleConfig{
		Owner:   owner,
		Wallet:  cfg.Wallet,
		Lister:  cfg.Lister,
		Start:   cfg.SaleStart,
		SoftCap: schema.Ether(cfg.SoftCapEth),
		HardCap: hardCapWei,
	}, a.token, a.oracle, a)
	if err != nil {
		panic(err)
	}
	a.crowdsale = cs

	a.vesting = NewVesting(owner, cfg.Claimer25, cfg.Claimer75, cfg.Refunder, cfg.SaleStart, a.oracle, a)

	// the vesting escrow plays the wallet: closed-vault proceeds land there
	a.crowdsale.SetUserRegistry(a.userManager)
	a.crowdsale.SetFundsRecipient(a.vesting.Fund)

	mustWire := func(errs ...error) {
		for _, err := range errs {
			if err != nil {
				panic(err)
			}
		}
	}
	mustWire(
		a.userFactory.SetUserCreator(owner, owner),
		a.userFactory.SetUserManager(owner, a.userManager.Address()),
		a.userFactory.SetKYCVerification(owner, a.kyc.Address()),
		a.userFactory.SetHookOperator(owner, a.hook.Address()),
		a.userManager.SetHookOperator(owner, a.hook.Address()),
		a.userManager.SetCrowdsale(owner, a.crowdsale.Address()),
		a.hook.BindToken(owner, a.token.Address(), a.token.BalanceOf, a.token.TaxTransfer),
		a.hook.SetOverBalanceLimitHolder(owner, cfg.Wallet, true),
		a.token.AddMinter(owner, a.crowdsale.Address()),
		a.token.Pause(owner),
		a.token.TransferOwnership(owner, a.crowdsale.Address()),
	)
}

func (a *Aiur) Run(port string) {
	icommon.NewMetricServer()
	a.config.Run()
	go a.runAPI(port)
	go a.runJobs()
}

func (a *Aiur) Close() {
	a.scheduler.Stop()
	a.pubPool.Release()
	for _, kw := range a.kwriters {
		kw.Close()
	}
	a.wdb.Close()
	a.config.Close()
	if err := a.store.Close(); err != nil {
		log.Error("close store", "err", err)
	}
}

// Publish fans an engine event out to the audit db, the event log, kafka
// and the metrics, off the caller's goroutine.
func (a *Aiur) Publish(ev schema.Event) {
	err := a.pubPool.Submit(func() {
		a.persistEvent(ev)
	})
	if err != nil {
		log.Error("submit event", "err", err, "type", ev.Type)
	}
}

func (a *Aiur) persistEvent(ev schema.Event) {
	if err := a.store.SaveEvent(ev); err != nil {
		log.Error("save event", "err", err, "id", ev.ID)
	}

	switch body := ev.Body.(type) {
	case schema.TransferEvent:
		err := a.wdb.InsertTransfer(schema.TransferRecord{
			EventId: ev.ID,
			Kind:    ev.Type,
			From:    body.From,
			To:      body.To,
			Amount:  body.Amount,
		})
		if err != nil {
			log.Error("insert transfer record", "err", err, "id", ev.ID)
		}
		metricTransfer(ev.Type)
	case schema.PurchaseEvent:
		phase := schema.PhasePublicSale
		if body.Presale {
			phase = schema.PhasePresale
		}
		err := a.wdb.InsertOrder(schema.PurchaseOrder{
			Investor:    body.Beneficiary,
			WeiAmount:   body.WeiAmount,
			TokenAmount: body.Tokens,
			Rate:        body.Rate,
			Phase:       phase,
		})
		if err != nil {
			log.Error("insert purchase order", "err", err, "id", ev.ID)
		}
	case schema.RefundEvent:
		err := a.wdb.InsertRefund(schema.RefundRecord{
			Investor:  body.Investor,
			Deposited: body.Deposited,
			Refunded:  body.Refunded,
			Deducted:  body.Deducted,
			Status:    schema.RefundPaid,
		})
		if err != nil {
			log.Error("insert refund record", "err", err, "id", ev.ID)
		}
		refundCounter.Inc()
	case schema.TaxationEvent:
		detail, _ := json.Marshal(body)
		err := a.wdb.InsertTaxationRun(schema.TaxationRun{
			Users:     body.Users,
			Collected: body.Collected,
			Detail:    detail,
		})
		if err != nil {
			log.Error("insert taxation run", "err", err, "id", ev.ID)
		}
		taxationRunCounter.Inc()
	case schema.KYCEvent:
		err := a.wdb.InsertUserAudit(schema.UserAudit{
			User:      body.User,
			Action:    ev.Type,
			OldStatus: body.OldStatus.String(),
			NewStatus: body.NewStatus.String(),
		})
		if err != nil {
			log.Error("insert user audit", "err", err, "id", ev.ID)
		}
	}

	a.publishKafka(ev)
}

func (a *Aiur) publishKafka(ev schema.Event) {
	if a.kwriters == nil {
		return
	}
	topic := AdminTopic
	switch ev.Type {
	case schema.EventTransfer, schema.EventMint, schema.EventBurn,
		schema.EventTaxTransfer, schema.EventOverBalanceMoved:
		topic = TransferTopic
	case schema.EventPurchase, schema.EventBounty:
		topic = PurchaseTopic
	case schema.EventRefund:
		topic = RefundTopic
	}
	kw, ok := a.kwriters[topic]
	if !ok {
		return
	}
	body, err := json.Marshal(&ev)
	if err != nil {
		log.Error("marshal event", "err", err, "id", ev.ID)
		return
	}
	if err := kw.Write(body); err != nil {
		log.Error("write kafka event", "err", err, "topic", topic, "id", ev.ID)
	}
}

// serviceAddress derives a stable identity address for an engine; the
// registry role checks compare against these.
func serviceAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("aiur/" + name))[12:])
}

func emit(sink schema.EventSink, evType string, body interface{}) {
	if sink == nil {
		return
	}
	sink.Publish(schema.Event{
		ID:        uuid.NewString(),
		Type:      evType,
		Timestamp: time.Now().Unix(),
		Body:      body,
	})
}
