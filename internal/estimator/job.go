package estimator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid estimate input")

// Job is the measured scope of an estimate: one geometry variant plus foam and waste.
// Exactly the variant named by Mode is used.
type Job struct {
	Mode     Mode       `json:"mode"`
	Building *Building  `json:"building,omitempty"`
	Walls    *WallsOnly `json:"walls,omitempty"`
	Flat     *FlatArea  `json:"flat,omitempty"`
	WallFoam FoamSpec   `json:"wallFoam"`
	RoofFoam FoamSpec   `json:"roofFoam"`
	WastePct float64    `json:"wastePct"`
}

// DefaultJob returns the job a blank estimate starts from.
func DefaultJob() Job {
	dims := DefaultDimensions()
	building := dims.Geometry(ModeBuilding).(Building)
	return Job{
		Mode:     ModeBuilding,
		Building: &building,
		WallFoam: FoamSpec{Type: OpenCell, Thickness: 3.5},
		RoofFoam: FoamSpec{Type: OpenCell, Thickness: 5.5},
		WastePct: 10,
	}
}

// Geometry returns the variant selected by Mode, or nil when it is missing.
func (j Job) Geometry() Geometry {
	switch j.Mode {
	case ModeBuilding:
		if j.Building != nil {
			return *j.Building
		}
	case ModeWalls:
		if j.Walls != nil {
			return *j.Walls
		}
	case ModeFlat:
		if j.Flat != nil {
			return *j.Flat
		}
	}
	return nil
}

// Compute prices j with the given extras and pricing.
func (j Job) Compute(extras Extras, pricing Pricing) Result {
	return Compute(j.Geometry(), j.WallFoam, j.RoofFoam, j.WastePct, extras, pricing)
}

// Validate rejects input that would make Compute produce meaningless numbers:
// unknown modes, negative or non-finite measurements and rates, and non-positive yields.
func Validate(j Job, extras Extras, pricing Pricing) error {
	if !j.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, j.Mode)
	}
	if j.Geometry() == nil {
		return fmt.Errorf("%w: %s dimensions are required", ErrInvalidInput, j.Mode)
	}

	checks := []fieldValue{
		{"wastePct", j.WastePct},
		{"laborHours", extras.LaborHours},
		{"tripCharge", extras.TripCharge},
	}
	switch g := j.Geometry().(type) {
	case Building:
		checks = append(checks,
			fieldValue{"length", g.Length},
			fieldValue{"width", g.Width},
			fieldValue{"wallHeight", g.WallHeight},
			fieldValue{"roofPitch", g.RoofPitch},
		)
	case WallsOnly:
		checks = append(checks,
			fieldValue{"linearFeet", g.LinearFeet},
			fieldValue{"wallHeight", g.WallHeight},
		)
	case FlatArea:
		checks = append(checks,
			fieldValue{"length", g.Length},
			fieldValue{"width", g.Width},
		)
	}
	for _, c := range checks {
		if err := nonNegative(c.field, c.value); err != nil {
			return err
		}
	}

	if j.Mode != ModeFlat {
		if err := validateFoam("wallFoam", j.WallFoam); err != nil {
			return err
		}
	}
	if j.Mode != ModeWalls {
		if err := validateFoam("roofFoam", j.RoofFoam); err != nil {
			return err
		}
	}

	for i, item := range extras.Items {
		if err := nonNegative(fmt.Sprintf("items[%d].quantity", i), item.Quantity); err != nil {
			return err
		}
		if !finite(item.UnitPrice) {
			return fmt.Errorf("%w: items[%d].unitPrice must be a finite number", ErrInvalidInput, i)
		}
		if !finite(item.Quantity * item.UnitPrice) {
			return fmt.Errorf("%w: items[%d].total overflows", ErrInvalidInput, i)
		}
	}

	if err := ValidatePricing(pricing); err != nil {
		return err
	}
	return finiteResult(j.Compute(extras.Recalculated(), pricing))
}

// finiteResult rejects inputs that are individually in range but overflow once multiplied out.
func finiteResult(r Result) error {
	for _, c := range []fieldValue{
		{"wallArea", r.WallArea},
		{"roofArea", r.RoofArea},
		{"boardFeetOpen", r.BoardFeetOpen},
		{"boardFeetClosed", r.BoardFeetClosed},
		{"setsOpen", r.SetsOpen},
		{"setsClosed", r.SetsClosed},
		{"materialCost", r.MaterialCost},
		{"laborCost", r.LaborCost},
		{"miscCost", r.MiscCost},
		{"subtotal", r.Subtotal},
		{"tax", r.Tax},
		{"total", r.Total},
	} {
		if !finite(c.value) {
			return fmt.Errorf("%w: %s overflows", ErrInvalidInput, c.field)
		}
	}
	return nil
}

// ValidatePricing rejects pricing that cannot convert board feet into sets and dollars.
func ValidatePricing(p Pricing) error {
	if err := positive("openCellYield", p.OpenCellYield); err != nil {
		return err
	}
	if err := positive("closedCellYield", p.ClosedCellYield); err != nil {
		return err
	}
	for _, c := range []fieldValue{
		{"openCellCost", p.OpenCellCost},
		{"closedCellCost", p.ClosedCellCost},
		{"laborRate", p.LaborRate},
		{"taxRate", p.TaxRate},
	} {
		if err := nonNegative(c.field, c.value); err != nil {
			return err
		}
	}
	if p.TaxRate > 100 {
		return fmt.Errorf("%w: taxRate must be between 0 and 100", ErrInvalidInput)
	}
	return nil
}

type fieldValue struct {
	field string
	value float64
}

func validateFoam(field string, spec FoamSpec) error {
	if !spec.Type.Valid() {
		return fmt.Errorf("%w: %s.foamType must be %q or %q", ErrInvalidInput, field, OpenCell, ClosedCell)
	}
	return positive(field+".thickness", spec.Thickness)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(field string, v float64) error {
	if !finite(v) || v < 0 {
		return fmt.Errorf("%w: %s must be a number >= 0", ErrInvalidInput, field)
	}
	return nil
}

func positive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return fmt.Errorf("%w: %s must be a number > 0", ErrInvalidInput, field)
	}
	return nil
}
