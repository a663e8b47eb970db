package config

import (
	"path"

	"github.com/ethereum/go-ethereum/log"
	"github.com/theirisai/ICO-contracts/config/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteName = "aiur-config.sqlite"

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlWdb(dsn string) *Wdb {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 10,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect config db success")
	return &Wdb{Db: db}
}

func NewSqliteWdb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 10,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect config sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.TaxConfig{}, &schema.IpRateWhitelist{}, &schema.Param{})
}

func (w *Wdb) GetTax() (tax schema.TaxConfig, err error) {
	err = w.Db.First(&tax).Error
	if err == gorm.ErrRecordNotFound {
		tax = schema.TaxConfig{
			TaxPercentage:      0,
			TaxationPeriodSecs: 0,
		}
		return tax, nil
	}
	return
}

func (w *Wdb) GetAllAvailableIpRateWhitelist() (ips []schema.IpRateWhitelist, err error) {
	err = w.Db.Where("available = ?", true).Find(&ips).Error
	return
}

func (w *Wdb) GetParam() (param schema.Param, err error) {
	err = w.Db.First(&param).Error
	if err == gorm.ErrRecordNotFound {
		return schema.Param{EventConcurrentNum: 20}, nil
	}
	return
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}
