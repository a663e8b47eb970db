package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	aiur "github.com/theirisai/ICO-contracts"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name: "aiur",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Value: "root@tcp(127.0.0.1:3306)/aiur?charset=utf8mb4&parseTime=True&loc=Local", Usage: "mysql dsn", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "sqlite_dir", Value: "./data/sqlite", Usage: "sqlite db dir path", EnvVars: []string{"SQLITE_DIR"}},
			&cli.BoolFlag{Name: "use_sqlite", Value: false, Usage: "run with sqlite instead of mysql", EnvVars: []string{"USE_SQLITE"}},
			&cli.BoolFlag{Name: "s3_flag", Value: false, Usage: "run with s3 store", EnvVars: []string{"S3_FLAG"}},
			&cli.StringFlag{Name: "s3_acc_key", Value: "", Usage: "s3 access key", EnvVars: []string{"S3_ACC_KEY"}},
			&cli.StringFlag{Name: "s3_secret_key", Value: "", Usage: "s3 secret key", EnvVars: []string{"S3_SECRET_KEY"}},
			&cli.StringFlag{Name: "s3_prefix", Value: "aiur", Usage: "s3 bucket name prefix", EnvVars: []string{"S3_PREFIX"}},
			&cli.StringFlag{Name: "s3_region", Value: "ap-northeast-1", Usage: "s3 bucket region", EnvVars: []string{"S3_REGION"}},
			&cli.StringFlag{Name: "s3_endpoint", Value: "", Usage: "s3 endpoint url", EnvVars: []string{"S3_ENDPOINT"}},
			&cli.StringFlag{Name: "kafka_uri", Value: "127.0.0.1:9092", Usage: "kafka broker uri", EnvVars: []string{"KAFKA_URI"}},
			&cli.BoolFlag{Name: "use_kafka", Value: false, Usage: "publish events to kafka", EnvVars: []string{"USE_KAFKA"}},

			&cli.StringFlag{Name: "owner", Usage: "platform owner address", Required: true, EnvVars: []string{"OWNER"}},
			&cli.StringFlag{Name: "wallet", Usage: "sale funds wallet address", Required: true, EnvVars: []string{"WALLET"}},
			&cli.StringFlag{Name: "kyc_admin", Usage: "kyc admin address", Required: true, EnvVars: []string{"KYC_ADMIN"}},
			&cli.StringFlag{Name: "lister", Usage: "whitelist lister address", EnvVars: []string{"LISTER"}},
			&cli.StringFlag{Name: "refunder", Usage: "over balance refunder address", EnvVars: []string{"REFUNDER"}},
			&cli.StringFlag{Name: "claimer_25", Usage: "first tranche claimer address", EnvVars: []string{"CLAIMER_25"}},
			&cli.StringFlag{Name: "claimer_75", Usage: "second tranche claimer address", EnvVars: []string{"CLAIMER_75"}},
			&cli.StringFlag{Name: "sale_start", Usage: "sale start time, RFC3339", EnvVars: []string{"SALE_START"}},
			&cli.Int64Flag{Name: "soft_cap", Value: 20000, Usage: "soft cap in ether", EnvVars: []string{"SOFT_CAP"}},
			&cli.Int64Flag{Name: "hard_cap", Value: 70000, Usage: "hard cap in ether", EnvVars: []string{"HARD_CAP"}},

			&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	saleStart := time.Now()
	if s := c.String("sale_start"); s != "" {
		start, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		saleStart = start
	}

	owner := common.HexToAddress(c.String("owner"))
	svcCfg := aiur.ServiceConfig{
		Owner:      owner,
		Wallet:     common.HexToAddress(c.String("wallet")),
		KycAdmin:   common.HexToAddress(c.String("kyc_admin")),
		Lister:     addrOr(c.String("lister"), owner),
		Refunder:   addrOr(c.String("refunder"), owner),
		Claimer25:  addrOr(c.String("claimer_25"), owner),
		Claimer75:  addrOr(c.String("claimer_75"), owner),
		SaleStart:  saleStart,
		SoftCapEth: c.Int64("soft_cap"),
		HardCapEth: c.Int64("hard_cap"),
	}

	s := aiur.New(
		c.String("db_dir"), c.String("mysql"), c.String("sqlite_dir"), c.Bool("use_sqlite"),
		c.Bool("s3_flag"), c.String("s3_acc_key"), c.String("s3_secret_key"), c.String("s3_prefix"), c.String("s3_region"), c.String("s3_endpoint"),
		c.String("kafka_uri"), c.Bool("use_kafka"),
		svcCfg,
	)
	s.Run(c.String("port"))

	<-signals
	s.Close()

	return nil
}

func addrOr(s string, fallback common.Address) common.Address {
	if s == "" {
		return fallback
	}
	return common.HexToAddress(s)
}
