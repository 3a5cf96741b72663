package model

import (
	"errors"
	"strings"
)

// InventoryCategory groups stock items.
type InventoryCategory string

const (
	CategoryMaterial  InventoryCategory = "Material"
	CategoryEquipment InventoryCategory = "Equipment"
	CategorySupply    InventoryCategory = "Supply"
)

var (
	ErrInvalidCategory  = errors.New("category must be Material, Equipment or Supply")
	ErrNegativeQuantity = errors.New("quantity and minLevel must be >= 0")
)

// InventoryItem is one tracked stock line.
type InventoryItem struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category InventoryCategory `json:"category"`
	Quantity float64           `json:"quantity"`
	Unit     string            `json:"unit"`
	MinLevel float64           `json:"minLevel"`
}

// Adjust returns the item with delta applied to its quantity, floored at zero.
func (i InventoryItem) Adjust(delta float64) InventoryItem {
	i.Quantity = max(0, i.Quantity+delta)
	return i
}

// LowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinLevel
}

// Validate checks the fields an item cannot be saved without.
func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrNameRequired
	}
	switch i.Category {
	case CategoryMaterial, CategoryEquipment, CategorySupply:
	default:
		return ErrInvalidCategory
	}
	if i.Quantity < 0 || i.MinLevel < 0 {
		return ErrNegativeQuantity
	}
	return nil
}

// InitialInventory is the stock a fresh install starts with.
func InitialInventory() []InventoryItem {
	return []InventoryItem{
		{ID: "1", Name: "Open Cell Foam Set", Category: CategoryMaterial, Quantity: 12, Unit: "Sets", MinLevel: 5},
		{ID: "2", Name: "Closed Cell Foam Set", Category: CategoryMaterial, Quantity: 8, Unit: "Sets", MinLevel: 3},
		{ID: "3", Name: "Suit - XL", Category: CategorySupply, Quantity: 50, Unit: "Pcs", MinLevel: 10},
		{ID: "4", Name: "Mask Filters", Category: CategorySupply, Quantity: 20, Unit: "Pairs", MinLevel: 5},
		{ID: "5", Name: "Gun Cleaner", Category: CategorySupply, Quantity: 15, Unit: "Cans", MinLevel: 5},
	}
}
