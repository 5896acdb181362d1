// Package metrics holds Prometheus instruments that are used across the
// gateway.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	IdentityRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_rejections_total",
			Help: "Requests rejected because the identity header was malformed.",
		})

	ObjectFilterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "object_filter_total",
			Help: "Object filter decisions by result (allowed, denied).",
		}, []string{"result"})

	RewriteTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewrite_total",
			Help: "Data-item rewrites by matched rule and outcome.",
		}, []string{"rule", "outcome"})

	SQLRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sql_rejections_total",
			Help: "Ad-hoc SQL strings that failed read-only validation.",
		})

	DashboardOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_ops_total",
			Help: "Dashboard storage operations by op and result.",
		}, []string{"op", "result"})
)

func init() {
	prometheus.MustRegister(
		IdentityRejectionsTotal,
		ObjectFilterTotal,
		RewriteTotal,
		SQLRejectionsTotal,
		DashboardOpsTotal,
	)
}

// Result maps an error to the "ok" / "error" label pair used by the vecs.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
