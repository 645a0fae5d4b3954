package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Number of sales committed.",
	})

	SaleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_failures_total",
		Help: "Number of sale operations rejected, by reason.",
	}, []string{"reason"})

	TxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_tx_retries_total",
		Help: "Number of transaction retries after a concurrency conflict.",
	})
)
