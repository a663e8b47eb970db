package aiur

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	MetricNameSpace = "aiur"
)

var (
	tokenTotalSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "token_total_supply",
			Help:      "token total supply in whole tokens",
		},
	)
	saleWeiRaised = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "sale_wei_raised",
			Help:      "crowdsale funds raised in ether",
		},
	)
	transferCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "transfers_total",
			Help:      "ledger movements by kind",
		},
		[]string{"kind"},
	)
	refundCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "refunds_total",
			Help:      "paid refund claims",
		},
	)
	taxationRunCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "taxation_runs_total",
			Help:      "completed taxation sweeps",
		},
	)
)

func init() {
	prometheus.MustRegister(
		tokenTotalSupply,
		saleWeiRaised,
		transferCounter,
		refundCounter,
		taxationRunCounter,
	)
}

func metricTotalSupply(supply *big.Int) {
	amount, _ := decimal.NewFromBigInt(supply, -18).Float64()
	tokenTotalSupply.Set(amount)
}

func metricWeiRaised(wei *big.Int) {
	amount, _ := decimal.NewFromBigInt(wei, -18).Float64()
	saleWeiRaised.Set(amount)
}

func metricTransfer(kind string) {
	transferCounter.WithLabelValues(kind).Inc()
}
