package aiur

import (
	"path"

	"github.com/theirisai/ICO-contracts/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const sqliteName = "aiur.sqlite"

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(
		&schema.PurchaseOrder{},
		&schema.TransferRecord{},
		&schema.RefundRecord{},
		&schema.TaxationRun{},
		&schema.UserAudit{},
	)
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}

func (w *Wdb) InsertOrder(order schema.PurchaseOrder) error {
	return w.Db.Create(&order).Error
}

func (w *Wdb) GetOrdersByInvestor(investor string, cursorId int64, num int) ([]schema.PurchaseOrder, error) {
	records := make([]schema.PurchaseOrder, 0, num)
	err := w.Db.Model(&schema.PurchaseOrder{}).
		Where("investor = ? and id > ?", investor, cursorId).
		Limit(num).Find(&records).Error
	return records, err
}

func (w *Wdb) InsertTransfer(rec schema.TransferRecord) error {
	return w.Db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

func (w *Wdb) GetTransfersByUser(addr string, cursorId int64, num int) ([]schema.TransferRecord, error) {
	records := make([]schema.TransferRecord, 0, num)
	err := w.Db.Model(&schema.TransferRecord{}).
		Where("(`from` = ? or `to` = ?) and id > ?", addr, addr, cursorId).
		Limit(num).Find(&records).Error
	return records, err
}

func (w *Wdb) InsertRefund(rec schema.RefundRecord) error {
	return w.Db.Create(&rec).Error
}

func (w *Wdb) InsertTaxationRun(rec schema.TaxationRun) error {
	return w.Db.Create(&rec).Error
}

func (w *Wdb) GetLastTaxationRun() (schema.TaxationRun, error) {
	rec := schema.TaxationRun{}
	err := w.Db.Model(&schema.TaxationRun{}).Order("id desc").Limit(1).Scan(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return rec, nil
	}
	return rec, err
}

func (w *Wdb) InsertUserAudit(rec schema.UserAudit) error {
	return w.Db.Create(&rec).Error
}

func (w *Wdb) GetUserAudits(addr string) ([]schema.UserAudit, error) {
	records := make([]schema.UserAudit, 0)
	err := w.Db.Where("user = ?", addr).Find(&records).Error
	return records, err
}
