package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/foamdesk/foamdesk/internal/estimator"
)

// JobStatus is where an estimate sits in the sales pipeline.
type JobStatus string

const (
	StatusDraft     JobStatus = "Draft"
	StatusWorkOrder JobStatus = "Work Order"
	StatusInvoiced  JobStatus = "Invoiced"
	StatusPaid      JobStatus = "Paid"
	StatusArchived  JobStatus = "Archived"
)

// Statuses lists every job status in pipeline order.
var Statuses = []JobStatus{StatusDraft, StatusWorkOrder, StatusInvoiced, StatusPaid, StatusArchived}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Open reports whether the job still counts towards the sales pipeline.
func (s JobStatus) Open() bool {
	return s != StatusArchived && s != StatusPaid
}

const untitledJob = "Untitled Job"

var (
	ErrCustomerRequired = errors.New("customer is required")
	ErrInvalidStatus    = errors.New("invalid job status")
)

// JobLocation is a GPS fix taken at the job site.
type JobLocation struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

// Estimate is a committed snapshot of a calculation, its line items and totals.
type Estimate struct {
	ID         string       `json:"id"`
	Number     string       `json:"number"`
	CustomerID string       `json:"customerId"`
	Date       time.Time    `json:"date"`
	Status     JobStatus    `json:"status"`
	JobName    string       `json:"jobName"`
	JobAddress string       `json:"jobAddress,omitempty"`
	Location   *JobLocation `json:"location,omitempty"`
	Images     []string     `json:"images,omitempty"`

	CalcData estimator.Job    `json:"calcData"`
	Extras   estimator.Extras `json:"extras"`

	TotalBoardFeetOpen   float64 `json:"totalBoardFeetOpen"`
	TotalBoardFeetClosed float64 `json:"totalBoardFeetClosed"`
	SetsRequiredOpen     float64 `json:"setsRequiredOpen"`
	SetsRequiredClosed   float64 `json:"setsRequiredClosed"`

	Items    []estimator.LineItem `json:"items"`
	Subtotal float64              `json:"subtotal"`
	Tax      float64              `json:"tax"`
	Total    float64              `json:"total"`

	Notes string `json:"notes,omitempty"`
}

// EstimateDraft is everything a caller supplies to commit a new estimate.
type EstimateDraft struct {
	CustomerID string           `json:"customerId"`
	JobName    string           `json:"jobName"`
	JobAddress string           `json:"jobAddress,omitempty"`
	Location   *JobLocation     `json:"location,omitempty"`
	Images     []string         `json:"images,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Status     JobStatus        `json:"status"`
	Job        estimator.Job    `json:"calcData"`
	Extras     estimator.Extras `json:"extras"`
}

// NewEstimateNumber returns a short human-facing estimate number such as EST-4821.
func NewEstimateNumber() string {
	return fmt.Sprintf("EST-%d", rand.IntN(10000))
}

// NewEstimate prices draft against pricing and snapshots the inputs and result.
func NewEstimate(draft EstimateDraft, pricing estimator.Pricing, id, number string, now time.Time) (Estimate, error) {
	if strings.TrimSpace(draft.CustomerID) == "" {
		return Estimate{}, ErrCustomerRequired
	}
	status := draft.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return Estimate{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	jobName := strings.TrimSpace(draft.JobName)
	if jobName == "" {
		jobName = untitledJob
	}

	extras := draft.Extras.Recalculated()
	result := draft.Job.Compute(extras, pricing)

	return Estimate{
		ID:                   id,
		Number:               number,
		CustomerID:           draft.CustomerID,
		Date:                 now.UTC(),
		Status:               status,
		JobName:              jobName,
		JobAddress:           strings.TrimSpace(draft.JobAddress),
		Location:             draft.Location,
		Images:               draft.Images,
		CalcData:             draft.Job,
		Extras:               extras,
		TotalBoardFeetOpen:   result.BoardFeetOpen,
		TotalBoardFeetClosed: result.BoardFeetClosed,
		SetsRequiredOpen:     result.SetsOpen,
		SetsRequiredClosed:   result.SetsClosed,
		Items:                LineItems(result, extras, pricing),
		Subtotal:             result.Subtotal,
		Tax:                  result.Tax,
		Total:                result.Total,
		Notes:                strings.TrimSpace(draft.Notes),
	}, nil
}

// LineItems is the itemized bill for a result: material, labor, trip charge when
// one applies, then the caller's miscellaneous items in order.
func LineItems(result estimator.Result, extras estimator.Extras, pricing estimator.Pricing) []estimator.LineItem {
	items := []estimator.LineItem{
		estimator.NewLineItem("material", "Spray Foam Material", 1, "Lot", result.MaterialCost),
		{
			ID:          "labor",
			Description: "Labor",
			Quantity:    extras.LaborHours,
			Unit:        "Hours",
			UnitPrice:   pricing.LaborRate,
			Total:       result.LaborCost,
		},
	}
	if extras.TripCharge > 0 {
		items = append(items, estimator.NewLineItem("trip", "Trip Charge", 1, "Flat", extras.TripCharge))
	}
	return append(items, extras.Items...)
}

// legacyCalcData is the calculation snapshot written before geometry modes were stored.
type legacyCalcData struct {
	estimator.Dimensions
	WallFoamType  estimator.FoamType `json:"wallFoamType"`
	WallThickness float64            `json:"wallThickness"`
	RoofFoamType  estimator.FoamType `json:"roofFoamType"`
	RoofThickness float64            `json:"roofThickness"`
	WastePct      float64            `json:"wastePct"`
}

func (l legacyCalcData) job() estimator.Job {
	building := l.Dimensions.Geometry(estimator.ModeBuilding).(estimator.Building)
	return estimator.Job{
		Mode:     estimator.ModeBuilding,
		Building: &building,
		WallFoam: estimator.FoamSpec{Type: l.WallFoamType, Thickness: l.WallThickness},
		RoofFoam: estimator.FoamSpec{Type: l.RoofFoamType, Thickness: l.RoofThickness},
		WastePct: l.WastePct,
	}
}

// DecodeEstimate parses an estimate record. Records whose calcData predates geometry
// modes are upgraded to a building job; upgraded reports whether that happened.
func DecodeEstimate(data []byte) (est Estimate, upgraded bool, err error) {
	if err := json.Unmarshal(data, &est); err != nil {
		return Estimate{}, false, fmt.Errorf("decode estimate: %w", err)
	}
	if est.CalcData.Mode != "" {
		return est, false, nil
	}

	var raw struct {
		CalcData json.RawMessage `json:"calcData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Estimate{}, false, fmt.Errorf("decode estimate calcData: %w", err)
	}
	if len(raw.CalcData) == 0 || string(raw.CalcData) == "null" {
		return est, false, nil
	}

	var legacy legacyCalcData
	if err := json.Unmarshal(raw.CalcData, &legacy); err != nil {
		return Estimate{}, false, fmt.Errorf("decode legacy calcData: %w", err)
	}
	est.CalcData = legacy.job()
	return est, true, nil
}
