package estimator

// FoamType is a spray-foam formulation.
type FoamType string

const (
	OpenCell   FoamType = "Open Cell"
	ClosedCell FoamType = "Closed Cell"
)

// Valid reports whether t is a known formulation.
func (t FoamType) Valid() bool {
	return t == OpenCell || t == ClosedCell
}

// FoamSpec is the foam applied to one surface.
type FoamSpec struct {
	Type      FoamType `json:"foamType"`
	Thickness float64  `json:"thickness"`
}

// LineItem is an extra charge on an estimate. Total is kept equal to Quantity * UnitPrice.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// NewLineItem builds a line item with its total filled in.
func NewLineItem(id, description string, quantity float64, unit string, unitPrice float64) LineItem {
	return LineItem{
		ID:          id,
		Description: description,
		Quantity:    quantity,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Total:       quantity * unitPrice,
	}
}

// Recalculated returns a copy of li with Total derived from Quantity and UnitPrice.
func (li LineItem) Recalculated() LineItem {
	li.Total = li.Quantity * li.UnitPrice
	return li
}

// Extras groups labor, trip charge and miscellaneous line items.
type Extras struct {
	LaborHours float64    `json:"laborHours"`
	TripCharge float64    `json:"tripCharge"`
	Items      []LineItem `json:"items,omitempty"`
}

// Recalculated returns a copy of e whose line-item totals match quantity * unit price.
func (e Extras) Recalculated() Extras {
	if e.Items == nil {
		return e
	}
	items := make([]LineItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = item.Recalculated()
	}
	e.Items = items
	return e
}

// Pricing represents the contractor's yields, material costs, labor rate and tax rate.
type Pricing struct {
	OpenCellYield   float64 `json:"openCellYield"`
	ClosedCellYield float64 `json:"closedCellYield"`
	OpenCellCost    float64 `json:"openCellCost"`
	ClosedCellCost  float64 `json:"closedCellCost"`
	LaborRate       float64 `json:"laborRate"`
	TaxRate         float64 `json:"taxRate"`
}

// Result contains every quantity and cost derived for one estimate.
type Result struct {
	WallArea        float64 `json:"wallArea"`
	RoofArea        float64 `json:"roofArea"`
	BoardFeetOpen   float64 `json:"boardFeetOpen"`
	BoardFeetClosed float64 `json:"boardFeetClosed"`
	SetsOpen        float64 `json:"setsOpen"`
	SetsClosed      float64 `json:"setsClosed"`
	MaterialCost    float64 `json:"materialCost"`
	LaborCost       float64 `json:"laborCost"`
	MiscCost        float64 `json:"miscCost"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	Total           float64 `json:"total"`
}

// BoardFeet is the foam volume for area square feet sprayed thickness inches deep.
func BoardFeet(area, thickness float64) float64 {
	return area * thickness
}

// SetsRequired is the number of sets needed for boardFeet at yield board feet per set.
// It is zero when there is no positive footage to cover.
func SetsRequired(boardFeet, yield float64) float64 {
	if boardFeet > 0 {
		return boardFeet / yield
	}
	return 0
}

// Compute prices a job. It never fails: out-of-range input flows through the arithmetic.
// A nil geometry prices no surfaces.
func Compute(g Geometry, wallFoam, roofFoam FoamSpec, wastePct float64, extras Extras, pricing Pricing) Result {
	var (
		mode           Mode
		wallArea, roof float64
	)
	if g != nil {
		mode = g.Mode()
		wallArea, roof = g.Areas()
	}

	wasteMult := 1 + wastePct/100
	wallBF := BoardFeet(wallArea, wallFoam.Thickness) * wasteMult
	roofBF := BoardFeet(roof, roofFoam.Thickness) * wasteMult

	var bfOpen, bfClosed float64
	if mode != ModeFlat {
		if wallFoam.Type == OpenCell {
			bfOpen += wallBF
		} else {
			bfClosed += wallBF
		}
	}
	if mode != ModeWalls {
		if roofFoam.Type == OpenCell {
			bfOpen += roofBF
		} else {
			bfClosed += roofBF
		}
	}

	setsOpen := SetsRequired(bfOpen, pricing.OpenCellYield)
	setsClosed := SetsRequired(bfClosed, pricing.ClosedCellYield)

	materialCost := setsOpen*pricing.OpenCellCost + setsClosed*pricing.ClosedCellCost
	laborCost := extras.LaborHours * pricing.LaborRate
	miscCost := 0.0
	for _, item := range extras.Items {
		miscCost += item.Total
	}

	subtotal := materialCost + laborCost + extras.TripCharge + miscCost
	// The conversion keeps tax from being fused into Total's addition, so Total == Subtotal + Tax exactly.
	tax := float64(subtotal * (pricing.TaxRate / 100))

	return Result{
		WallArea:        wallArea,
		RoofArea:        roof,
		BoardFeetOpen:   bfOpen,
		BoardFeetClosed: bfClosed,
		SetsOpen:        setsOpen,
		SetsClosed:      setsClosed,
		MaterialCost:    materialCost,
		LaborCost:       laborCost,
		MiscCost:        miscCost,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           subtotal + tax,
	}
}

// ComputeDimensions prices a job described by flat dimensions and a mode.
func ComputeDimensions(mode Mode, dims Dimensions, wallFoam, roofFoam FoamSpec, wastePct float64, extras Extras, pricing Pricing) Result {
	return Compute(dims.Geometry(mode), wallFoam, roofFoam, wastePct, extras, pricing)
}
