package model

import (
	"errors"
	"strings"
	"time"
)

// ErrNameRequired is returned when a customer has no name.
var ErrNameRequired = errors.New("name is required")

// Customer is a contact the contractor quotes work for.
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName,omitempty"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Zip         string    `json:"zip"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Normalize trims whitespace from every text field.
func (c Customer) Normalize() Customer {
	for _, f := range []*string{&c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.Zip, &c.Notes} {
		*f = strings.TrimSpace(*f)
	}
	return c
}

// Validate checks the fields a customer cannot be saved without.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// Matches reports whether query appears, ignoring case, in the name or company name.
func (c Customer) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.CompanyName), q)
}
