package pricing

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// SupportedCurrencies the calculator accepts.
var SupportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
}

// VolumeTier is a discount bracket keyed by purchased quantity range.
// Tiers are scanned in order; the first range containing the quantity
// wins.
type VolumeTier struct {
	MinQuantity        int     `json:"min_quantity"`
	MaxQuantity        int     `json:"max_quantity"`
	DiscountPercentage float64 `json:"discount_percentage"`
}

// DiscountRules is the typed union of the three discount variants.
// Zero values mean "rule absent".
type DiscountRules struct {
	Percentage float64      `json:"percentage"`
	Fixed      float64      `json:"fixed"`
	Volume     []VolumeTier `json:"volume"`
}

func (r DiscountRules) Validate() error {
	if r.Percentage < 0 || r.Percentage > 100 {
		return fmt.Errorf("percentage discount must be between 0 and 100, got %v", r.Percentage)
	}
	if r.Fixed < 0 {
		return fmt.Errorf("fixed discount cannot be negative, got %v", r.Fixed)
	}
	for i, tier := range r.Volume {
		if tier.MinQuantity > tier.MaxQuantity {
			return fmt.Errorf("volume tier %d: min_quantity %d exceeds max_quantity %d", i, tier.MinQuantity, tier.MaxQuantity)
		}
		if tier.DiscountPercentage < 0 || tier.DiscountPercentage > 100 {
			return fmt.Errorf("volume tier %d: discount_percentage must be between 0 and 100", i)
		}
	}
	return nil
}

// TaxComponent is a named additional tax rate (VAT, state tax, ...).
type TaxComponent struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

type TaxRules struct {
	StandardRate float64        `json:"standard_rate"`
	Additional   []TaxComponent `json:"additional"`
}

func (r TaxRules) Validate() error {
	if r.StandardRate < 0 {
		return fmt.Errorf("standard tax rate cannot be negative, got %v", r.StandardRate)
	}
	for i, comp := range r.Additional {
		if comp.Rate < 0 {
			return fmt.Errorf("tax component %d (%s): rate cannot be negative", i, comp.Name)
		}
	}
	return nil
}

// DecodeDiscountRules parses a stored JSONB rule blob and validates it.
func DecodeDiscountRules(raw datatypes.JSON) (DiscountRules, error) {
	var r DiscountRules
	if len(raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode discount rules: %w", err)
	}
	return r, r.Validate()
}

// DecodeTaxRules parses a stored JSONB tax blob and validates it.
func DecodeTaxRules(raw datatypes.JSON) (TaxRules, error) {
	var r TaxRules
	if len(raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode tax rules: %w", err)
	}
	return r, r.Validate()
}
