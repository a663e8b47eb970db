package config

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/theirisai/ICO-contracts/config/schema"
)

type Config struct {
	wdb                *Wdb
	taxPercentage      int64
	taxationPeriodSecs int64
	ipWhiteList        *map[string]struct{}
	Param              schema.Param
	scheduler          *gocron.Scheduler
	lock               sync.RWMutex
}

func New(configDSN, sqliteDir string, useSqlite bool) *Config {
	var wdb *Wdb
	if useSqlite {
		wdb = NewSqliteWdb(sqliteDir)
	} else {
		wdb = NewMysqlWdb(configDSN)
	}
	err := wdb.Migrate()
	if err != nil {
		panic(err)
	}
	tax, err := wdb.GetTax()
	if err != nil {
		panic(err)
	}
	return &Config{
		wdb:                wdb,
		taxPercentage:      tax.TaxPercentage,
		taxationPeriodSecs: tax.TaxationPeriodSecs,
		ipWhiteList:        &map[string]struct{}{},
		scheduler:          gocron.NewScheduler(time.UTC),
	}
}

func (c *Config) GetTaxPercentage() int64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.taxPercentage
}

// TaxationPeriod returns the configured interval between taxation runs.
// Zero means no override; the engine default applies.
func (c *Config) TaxationPeriod() time.Duration {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return time.Duration(c.taxationPeriodSecs) * time.Second
}

func (c *Config) GetIPWhiteList() *map[string]struct{} {
	return c.ipWhiteList
}

func (c *Config) Run() {
	go c.runJobs()
}

func (c *Config) Close() {
	c.wdb.Close()
}
