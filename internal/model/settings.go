package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foamdesk/foamdesk/internal/estimator"
)

// ErrInvalidSettings is wrapped by settings validation failures that are not pricing errors.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the contractor profile: company identity and pricing.
type Settings struct {
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	CompanyPhone   string `json:"companyPhone"`
	CompanyEmail   string `json:"companyEmail"`
	LogoURL        string `json:"logoUrl,omitempty"`

	OpenCellYield   float64 `json:"openCellYield"`
	ClosedCellYield float64 `json:"closedCellYield"`
	OpenCellCost    float64 `json:"openCellCost"`
	ClosedCellCost  float64 `json:"closedCellCost"`

	LaborRate float64 `json:"laborRate"`
	TaxRate   float64 `json:"taxRate"`
}

// DefaultSettings is the factory profile used until one is saved.
func DefaultSettings() Settings {
	return Settings{
		CompanyName:     "Premier Spray Foam",
		CompanyAddress:  "123 Insulation Lane, Contractor City, ST 12345",
		CompanyPhone:    "(555) 123-4567",
		CompanyEmail:    "info@premierspray.com",
		OpenCellYield:   16000,
		ClosedCellYield: 4000,
		OpenCellCost:    2000,
		ClosedCellCost:  2600,
		LaborRate:       85,
		TaxRate:         7.5,
	}
}

// Pricing extracts the values the estimation engine needs.
func (s Settings) Pricing() estimator.Pricing {
	return estimator.Pricing{
		OpenCellYield:   s.OpenCellYield,
		ClosedCellYield: s.ClosedCellYield,
		OpenCellCost:    s.OpenCellCost,
		ClosedCellCost:  s.ClosedCellCost,
		LaborRate:       s.LaborRate,
		TaxRate:         s.TaxRate,
	}
}

// Validate checks that the company is named and the pricing is usable.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.CompanyName) == "" {
		return fmt.Errorf("%w: companyName is required", ErrInvalidSettings)
	}
	return estimator.ValidatePricing(s.Pricing())
}

// Session is the signed-in user. Only one exists at a time.
type Session struct {
	Username        string    `json:"username"`
	Company         string    `json:"company"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	LoggedInAt      time.Time `json:"loggedInAt"`
}
