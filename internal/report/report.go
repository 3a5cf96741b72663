// Package report summarizes estimates and inventory for the dashboard and CRM views.
package report

import (
	"slices"

	"github.com/foamdesk/foamdesk/internal/model"
)

// RecentLimit is how many estimates the dashboard lists as recent activity.
const RecentLimit = 5

// StatusCount is the number of estimates in one status.
type StatusCount struct {
	Status model.JobStatus `json:"status"`
	Count  int             `json:"count"`
}

// Summary is the dashboard view of the business.
type Summary struct {
	Pipeline         float64               `json:"pipeline"`
	ActiveWorkOrders int                   `json:"activeWorkOrders"`
	PendingInvoices  int                   `json:"pendingInvoices"`
	LowStock         []model.InventoryItem `json:"lowStock"`
	StatusCounts     []StatusCount         `json:"statusCounts"`
	Recent           []model.Estimate      `json:"recent"`
}

// Dashboard computes the summary. Pipeline is the sum of totals of jobs that are
// neither paid nor archived. Recent holds the newest estimates by date.
func Dashboard(estimates []model.Estimate, inventory []model.InventoryItem) Summary {
	counts := make(map[model.JobStatus]int, len(model.Statuses))
	summary := Summary{
		LowStock: make([]model.InventoryItem, 0),
	}

	for _, est := range estimates {
		counts[est.Status]++
		if est.Status.Open() {
			summary.Pipeline += est.Total
		}
	}
	summary.ActiveWorkOrders = counts[model.StatusWorkOrder]
	summary.PendingInvoices = counts[model.StatusInvoiced]

	summary.StatusCounts = make([]StatusCount, 0, len(model.Statuses))
	for _, status := range model.Statuses {
		summary.StatusCounts = append(summary.StatusCounts, StatusCount{Status: status, Count: counts[status]})
	}

	for _, item := range inventory {
		if item.LowStock() {
			summary.LowStock = append(summary.LowStock, item)
		}
	}

	recent := slices.Clone(estimates)
	slices.SortStableFunc(recent, func(a, b model.Estimate) int {
		return b.Date.Compare(a.Date)
	})
	summary.Recent = recent[:min(RecentLimit, len(recent))]
	if summary.Recent == nil {
		summary.Recent = make([]model.Estimate, 0)
	}

	return summary
}

// CustomerSummary is one customer with their estimates and lifetime value.
type CustomerSummary struct {
	Customer      model.Customer   `json:"customer"`
	Estimates     []model.Estimate `json:"estimates"`
	LifetimeValue float64          `json:"lifetimeValue"`
}

// LifetimeValue is the sum of the totals of every estimate written for customerID.
func LifetimeValue(customerID string, estimates []model.Estimate) float64 {
	var total float64
	for _, est := range estimates {
		if est.CustomerID == customerID {
			total += est.Total
		}
	}
	return total
}

// Customer builds the CRM detail for c from its estimates, newest first.
func Customer(c model.Customer, estimates []model.Estimate) CustomerSummary {
	own := make([]model.Estimate, 0)
	for _, est := range estimates {
		if est.CustomerID == c.ID {
			own = append(own, est)
		}
	}
	slices.SortStableFunc(own, func(a, b model.Estimate) int {
		return b.Date.Compare(a.Date)
	})
	return CustomerSummary{
		Customer:      c,
		Estimates:     own,
		LifetimeValue: LifetimeValue(c.ID, own),
	}
}
