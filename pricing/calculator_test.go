package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mspdesk-backend/models"
)

func TestComputeNoRulesRoundTrip(t *testing.T) {
	calc := Compute(Params{BaseAmount: 500, Currency: "USD", Quantity: 2})

	if len(calc.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", calc.Errors)
	}
	if calc.BasePrice != 1000 {
		t.Fatalf("basePrice = %v, want 1000", calc.BasePrice)
	}
	if calc.DiscountAmount != 0 || calc.TaxAmount != 0 {
		t.Fatalf("discount/tax = %v/%v, want 0/0", calc.DiscountAmount, calc.TaxAmount)
	}
	if calc.FinalPrice != 1000 {
		t.Fatalf("finalPrice = %v, want 1000", calc.FinalPrice)
	}
}

func TestComputeQuantityDefaultsToOne(t *testing.T) {
	calc := Compute(Params{BaseAmount: 250, Currency: "EUR"})
	if calc.BasePrice != 250 || calc.FinalPrice != 250 {
		t.Fatalf("base/final = %v/%v, want 250/250", calc.BasePrice, calc.FinalPrice)
	}
}

func TestComputeDiscountCap(t *testing.T) {
	calc := Compute(Params{
		BaseAmount:    1000,
		Currency:      "USD",
		DiscountRules: &DiscountRules{Percentage: 99},
	})

	if calc.DiscountAmount != 950 {
		t.Fatalf("discountAmount = %v, want 950 (95%% cap)", calc.DiscountAmount)
	}
	if len(calc.Warnings) == 0 {
		t.Fatal("expected a cap warning")
	}
	if calc.FinalPrice != 50 {
		t.Fatalf("finalPrice = %v, want 50", calc.FinalPrice)
	}
}

func TestComputeDiscountsSum(t *testing.T) {
	calc := Compute(Params{
		BaseAmount: 100,
		Currency:   "USD",
		Quantity:   10,
		DiscountRules: &DiscountRules{
			Percentage: 10,
			Fixed:      50,
			Volume: []VolumeTier{
				{MinQuantity: 1, MaxQuantity: 5, DiscountPercentage: 1},
				{MinQuantity: 6, MaxQuantity: 20, DiscountPercentage: 5},
				{MinQuantity: 6, MaxQuantity: 100, DiscountPercentage: 50}, // shadowed: first match wins
			},
		},
	})

	// base 1000: 10% = 100, fixed = 50, volume 5% = 50
	if calc.DiscountAmount != 200 {
		t.Fatalf("discountAmount = %v, want 200", calc.DiscountAmount)
	}
	if calc.FinalPrice != 800 {
		t.Fatalf("finalPrice = %v, want 800", calc.FinalPrice)
	}
}

func TestComputeTaxOnTaxableAmount(t *testing.T) {
	calc := Compute(Params{
		BaseAmount:    1000,
		Currency:      "GBP",
		DiscountRules: &DiscountRules{Percentage: 20},
		TaxRules: &TaxRules{
			StandardRate: 10,
			Additional:   []TaxComponent{{Name: "VAT", Rate: 5}},
		},
	})

	// taxable 800: standard 80 + VAT 40
	if calc.TaxAmount != 120 {
		t.Fatalf("taxAmount = %v, want 120", calc.TaxAmount)
	}
	if calc.FinalPrice != 920 {
		t.Fatalf("finalPrice = %v, want 920", calc.FinalPrice)
	}
}

func TestComputeInvalidInputsShortCircuit(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		want   string
	}{
		{"invalid currency", Params{BaseAmount: 100, Currency: "JPY"}, "Invalid currency"},
		{"zero base", Params{BaseAmount: 0, Currency: "USD"}, "Base amount"},
		{"negative base", Params{BaseAmount: -5, Currency: "USD"}, "Base amount"},
		{"negative quantity", Params{BaseAmount: 100, Currency: "USD", Quantity: -1}, "Quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calc := Compute(tc.params)
			if len(calc.Errors) == 0 {
				t.Fatal("expected errors")
			}
			found := false
			for _, e := range calc.Errors {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v missing %q", calc.Errors, tc.want)
			}
			if calc.BasePrice != 0 || calc.FinalPrice != 0 {
				t.Fatalf("invalid input must produce a zeroed result, got base=%v final=%v", calc.BasePrice, calc.FinalPrice)
			}
		})
	}
}

func TestComputeBreakdownItemizesRules(t *testing.T) {
	calc := Compute(Params{
		BaseAmount:    200,
		Currency:      "USD",
		DiscountRules: &DiscountRules{Percentage: 10, Fixed: 5},
		TaxRules:      &TaxRules{StandardRate: 20},
	})

	kinds := make(map[string]bool)
	for _, item := range calc.Breakdown {
		kinds[item.Kind] = true
	}
	for _, want := range []string{"base", "discount_percentage", "discount_fixed", "tax_standard"} {
		if !kinds[want] {
			t.Errorf("breakdown missing %q: %+v", want, calc.Breakdown)
		}
	}
}

type failingRuleStore struct{}

func (failingRuleStore) Get(ctx context.Context, id string) (*models.PricingRule, error) {
	return nil, errors.New("backend unreachable")
}

func TestCalculateDegradesWhenRuleFetchFails(t *testing.T) {
	c := NewCalculator(failingRuleStore{})
	calc := c.Calculate(context.Background(), Params{BaseAmount: 100, Currency: "USD"}, "rule-1")

	if len(calc.Errors) != 0 {
		t.Fatalf("fetch failure must not fail the calculation: %v", calc.Errors)
	}
	if calc.FinalPrice != 100 {
		t.Fatalf("finalPrice = %v, want 100", calc.FinalPrice)
	}
	if len(calc.Warnings) == 0 {
		t.Fatal("expected a degradation warning")
	}
}

type staticRuleStore struct{ rule *models.PricingRule }

func (s staticRuleStore) Get(ctx context.Context, id string) (*models.PricingRule, error) {
	return s.rule, nil
}

func TestCalculateUsesNamedRule(t *testing.T) {
	rule := &models.PricingRule{
		Id:            "rule-1",
		Name:          "standard",
		DiscountRules: []byte(`{"percentage": 10}`),
		TaxRules:      []byte(`{"standard_rate": 20}`),
	}

	c := NewCalculator(staticRuleStore{rule: rule})
	calc := c.Calculate(context.Background(), Params{BaseAmount: 100, Currency: "USD"}, "rule-1")

	if calc.DiscountAmount != 10 {
		t.Fatalf("discountAmount = %v, want 10", calc.DiscountAmount)
	}
	if calc.TaxAmount != 18 {
		t.Fatalf("taxAmount = %v, want 18", calc.TaxAmount)
	}
	if calc.FinalPrice != 108 {
		t.Fatalf("finalPrice = %v, want 108", calc.FinalPrice)
	}
}

func TestCalculateExplicitRulesBeatNamedRule(t *testing.T) {
	rule := &models.PricingRule{
		Id:            "rule-1",
		DiscountRules: []byte(`{"percentage": 50}`),
	}

	c := NewCalculator(staticRuleStore{rule: rule})
	calc := c.Calculate(context.Background(), Params{
		BaseAmount:    100,
		Currency:      "USD",
		DiscountRules: &DiscountRules{Percentage: 10},
		TaxRules:      &TaxRules{},
	}, "rule-1")

	if calc.DiscountAmount != 10 {
		t.Fatalf("discountAmount = %v, want 10 (explicit rules win)", calc.DiscountAmount)
	}
}

func TestDiscountRulesValidation(t *testing.T) {
	bad := []DiscountRules{
		{Percentage: -1},
		{Percentage: 101},
		{Fixed: -10},
		{Volume: []VolumeTier{{MinQuantity: 10, MaxQuantity: 5}}},
		{Volume: []VolumeTier{{MinQuantity: 1, MaxQuantity: 5, DiscountPercentage: 200}}},
	}
	for i, r := range bad {
		if err := r.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if err := (DiscountRules{Percentage: 15, Fixed: 3}).Validate(); err != nil {
		t.Errorf("valid rules rejected: %v", err)
	}
}
