// Package metrics declares the Prometheus collectors of the editor service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileBranches counts full-form saves by the decision taken.
	ReconcileBranches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editor_reconcile_branch_total",
		Help: "Full column saves by reconciliation branch",
	}, []string{"branch"})

	// LinkAppends counts append operations by outcome.
	LinkAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editor_link_append_total",
		Help: "Link append operations by outcome",
	}, []string{"outcome"})

	// AliasFallbacks counts requests that needed a second identifier alias.
	AliasFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editor_alias_fallback_total",
		Help: "CMS calls retried with another identifier alias",
	}, []string{"op"})

	// CacheLookups counts column cache reads by result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "editor_column_cache_lookups_total",
		Help: "Column cache lookups by result",
	}, []string{"result"})

	// LockWaits observes how long appends waited for the per-column lock.
	LockWaits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "editor_column_lock_wait_seconds",
		Help:    "Time spent waiting for the per-column write lock",
		Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2, 5},
	})
)
