package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncTotal counts orchestrated syncs by outcome (ok, partial, failed).
var SyncTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "ctrader",
		Name:      "sync_total",
		Help:      "Total number of cTrader account syncs by result",
	},
	[]string{"result"},
)

var SyncDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "journal",
		Subsystem: "ctrader",
		Name:      "sync_duration_seconds",
		Help:      "Duration of a single cTrader account sync",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	},
)

var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "ctrader",
		Name:      "token_refresh_total",
		Help:      "Total number of OAuth token refreshes by result",
	},
	[]string{"result"},
)

// SweepAccountsTotal counts per-account sweep outcomes (synced, skipped, failed).
var SweepAccountsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "ctrader",
		Name:      "sweep_accounts_total",
		Help:      "Accounts visited by the scheduled sweep by status",
	},
	[]string{"status"},
)

var ReconcileFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "ctrader",
		Name:      "reconcile_item_failures_total",
		Help:      "Positions that could not be written during reconciliation",
	},
)
