// Package metrics provides Prometheus metrics for the estimating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Estimation metrics
	EstimatesComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foamdesk_estimates_computed_total",
			Help: "Total number of estimate calculations",
		},
		[]string{"mode"},
	)

	EstimatesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foamdesk_estimates_saved_total",
			Help: "Total number of estimates committed",
		},
		[]string{"status"},
	)

	// Data transfer metrics
	Imports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foamdesk_imports_total",
			Help: "Total number of data imports",
		},
		[]string{"result"},
	)

	Backups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foamdesk_backups_total",
			Help: "Total number of scheduled backup runs",
		},
		[]string{"result"},
	)

	InventoryAdjustments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foamdesk_inventory_adjustments_total",
			Help: "Total number of inventory quantity adjustments",
		},
	)
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
