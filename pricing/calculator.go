package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mspdesk-backend/models"
	"mspdesk-backend/utils"

	"gorm.io/gorm"
)

// discountCap: total discount never exceeds 95% of the base price.
const discountCap = 0.95

// Params are the inputs of one pricing computation. Quantity defaults
// to 1 when zero. DiscountRules/TaxRules, when set, take precedence
// over a named pricing rule.
type Params struct {
	BaseAmount    float64        `json:"baseAmount"`
	Currency      string         `json:"currency"`
	Quantity      int            `json:"quantity"`
	DiscountRules *DiscountRules `json:"discountRules"`
	TaxRules      *TaxRules      `json:"taxRules"`
}

// BreakdownItem itemizes one contributing rule for auditability.
type BreakdownItem struct {
	Kind   string  `json:"kind"` // base | discount_percentage | discount_fixed | discount_volume | tax_standard | tax_additional
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Calculation is the full result of a pricing run. Input violations
// short-circuit to a zeroed result with Errors populated; warnings
// never stop the computation.
type Calculation struct {
	BasePrice      float64         `json:"basePrice"`
	DiscountAmount float64         `json:"discountAmount"`
	TaxAmount      float64         `json:"taxAmount"`
	FinalPrice     float64         `json:"finalPrice"`
	Currency       string          `json:"currency"`
	Breakdown      []BreakdownItem `json:"breakdown"`
	Errors         []string        `json:"errors,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// RuleStore looks up named pricing rules.
type RuleStore interface {
	Get(ctx context.Context, id string) (*models.PricingRule, error)
}

// Calculator computes deterministic discount/tax/final prices. The
// rule store is optional; a fetch failure degrades to caller-supplied
// rules rather than failing the computation.
type Calculator struct {
	rules RuleStore
}

func NewCalculator(rules RuleStore) *Calculator {
	return &Calculator{rules: rules}
}

// Calculate resolves the effective rules and runs Compute. When
// pricingRuleID is set and the params carry no explicit rules, the
// named rule supplies them; lookup or decode failures fall back to
// empty rules with a warning.
func (c *Calculator) Calculate(ctx context.Context, params Params, pricingRuleID string) Calculation {
	var warnings []string

	if pricingRuleID != "" && c.rules != nil && (params.DiscountRules == nil || params.TaxRules == nil) {
		rule, err := c.rules.Get(ctx, pricingRuleID)
		if err != nil {
			log.Printf("pricing rule %s fetch failed, using caller rules: %v", pricingRuleID, err)
			warnings = append(warnings, fmt.Sprintf("pricing rule %s unavailable, applied caller-supplied rules", pricingRuleID))
		} else if rule != nil {
			if params.DiscountRules == nil {
				if dr, err := DecodeDiscountRules(rule.DiscountRules); err != nil {
					warnings = append(warnings, fmt.Sprintf("pricing rule %s has invalid discount rules: %v", pricingRuleID, err))
				} else {
					params.DiscountRules = &dr
				}
			}
			if params.TaxRules == nil {
				if tr, err := DecodeTaxRules(rule.TaxRules); err != nil {
					warnings = append(warnings, fmt.Sprintf("pricing rule %s has invalid tax rules: %v", pricingRuleID, err))
				} else {
					params.TaxRules = &tr
				}
			}
		}
	}

	calc := Compute(params)
	calc.Warnings = append(warnings, calc.Warnings...)
	return calc
}

// Compute is the pure pricing algorithm:
//
//	basePrice = baseAmount * quantity
//	discount  = percentage + fixed + first matching volume tier, capped at 95% of basePrice
//	tax       = (basePrice - discount) * (standard + additional rates) / 100
//	final     = taxable + tax
//
// A negative final price is reported as an error, not clamped.
func Compute(params Params) Calculation {
	calc := Calculation{Currency: params.Currency}

	if params.BaseAmount <= 0 {
		calc.Errors = append(calc.Errors, "Base amount must be greater than zero")
	}
	if !SupportedCurrencies[params.Currency] {
		calc.Errors = append(calc.Errors, fmt.Sprintf("Invalid currency: %s (supported: USD, EUR, GBP)", params.Currency))
	}
	if params.Quantity < 0 {
		calc.Errors = append(calc.Errors, "Quantity cannot be negative")
	}
	if len(calc.Errors) > 0 {
		return calc
	}

	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}
	basePrice := utils.Round2(params.BaseAmount * float64(quantity))
	calc.BasePrice = basePrice
	calc.Breakdown = append(calc.Breakdown, BreakdownItem{Kind: "base", Label: fmt.Sprintf("%v x %d", params.BaseAmount, quantity), Amount: basePrice})

	var discounts DiscountRules
	if params.DiscountRules != nil {
		discounts = *params.DiscountRules
	}
	if err := discounts.Validate(); err != nil {
		calc.Errors = append(calc.Errors, err.Error())
		calc.BasePrice = 0
		calc.Breakdown = nil
		return calc
	}

	var discount float64
	if discounts.Percentage > 0 {
		amt := utils.Round2(basePrice * discounts.Percentage / 100)
		discount += amt
		calc.Breakdown = append(calc.Breakdown, BreakdownItem{Kind: "discount_percentage", Label: fmt.Sprintf("%v%% discount", discounts.Percentage), Amount: -amt})
	}
	if discounts.Fixed > 0 {
		discount += discounts.Fixed
		calc.Breakdown = append(calc.Breakdown, BreakdownItem{Kind: "discount_fixed", Label: "fixed discount", Amount: -discounts.Fixed})
	}
	for _, tier := range discounts.Volume {
		if quantity >= tier.MinQuantity && quantity <= tier.MaxQuantity {
			amt := utils.Round2(basePrice * tier.DiscountPercentage / 100)
			discount += amt
			calc.Breakdown = append(calc.Breakdown, BreakdownItem{
				Kind:   "discount_volume",
				Label:  fmt.Sprintf("volume tier %d-%d (%v%%)", tier.MinQuantity, tier.MaxQuantity, tier.DiscountPercentage),
				Amount: -amt,
			})
			break
		}
	}

	maxDiscount := utils.Round2(basePrice * discountCap)
	if discount > maxDiscount {
		calc.Warnings = append(calc.Warnings, fmt.Sprintf("total discount %.2f exceeds 95%% of base price, capped at %.2f", discount, maxDiscount))
		discount = maxDiscount
	}
	calc.DiscountAmount = utils.Round2(discount)

	taxable := utils.Round2(basePrice - calc.DiscountAmount)

	var taxes TaxRules
	if params.TaxRules != nil {
		taxes = *params.TaxRules
	}
	if err := taxes.Validate(); err != nil {
		calc.Errors = append(calc.Errors, err.Error())
		return calc
	}

	var tax float64
	if taxes.StandardRate > 0 {
		amt := utils.Round2(taxable * taxes.StandardRate / 100)
		tax += amt
		calc.Breakdown = append(calc.Breakdown, BreakdownItem{Kind: "tax_standard", Label: fmt.Sprintf("standard tax %v%%", taxes.StandardRate), Amount: amt})
	}
	for _, comp := range taxes.Additional {
		amt := utils.Round2(taxable * comp.Rate / 100)
		tax += amt
		calc.Breakdown = append(calc.Breakdown, BreakdownItem{Kind: "tax_additional", Label: fmt.Sprintf("%s %v%%", comp.Name, comp.Rate), Amount: amt})
	}
	calc.TaxAmount = utils.Round2(tax)

	calc.FinalPrice = utils.Round2(taxable + calc.TaxAmount)
	if calc.FinalPrice < 0 {
		calc.Errors = append(calc.Errors, fmt.Sprintf("Final price cannot be negative, got %.2f", calc.FinalPrice))
	}
	return calc
}

// GormRuleStore loads pricing rules from the tenant schema.
type GormRuleStore struct {
	db *gorm.DB
}

func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

func (s *GormRuleStore) Get(ctx context.Context, id string) (*models.PricingRule, error) {
	var rule models.PricingRule
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&rule, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("pricing rule %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
