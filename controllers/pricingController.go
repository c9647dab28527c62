package controllers

import (
	"errors"

	"mspdesk-backend/database"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/pricing"

	"github.com/gofiber/fiber/v2"
)

type calculatePricingDTO struct {
	BaseAmount    float64                `json:"baseAmount" validate:"required"`
	Currency      string                 `json:"currency" validate:"required"`
	Quantity      int                    `json:"quantity"`
	DiscountRules *pricing.DiscountRules `json:"discountRules"`
	TaxRules      *pricing.TaxRules      `json:"taxRules"`
	PricingRuleId string                 `json:"pricing_rule_id"`
	ContractId    string                 `json:"contract_id"`
	ChangeReason  string                 `json:"change_reason"`
}

// CalculatePricing runs the calculator and, when a contract is named,
// appends a history entry with the calculation breakdown.
func CalculatePricing(c *fiber.Ctx) error {
	var dto calculatePricingDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	params := pricing.Params{
		BaseAmount:    dto.BaseAmount,
		Currency:      dto.Currency,
		Quantity:      dto.Quantity,
		DiscountRules: dto.DiscountRules,
		TaxRules:      dto.TaxRules,
	}

	calculator := pricing.NewCalculator(pricing.NewGormRuleStore(tenantDB))
	calc := calculator.Calculate(c.Context(), params, dto.PricingRuleId)

	if len(calc.Errors) == 0 && dto.ContractId != "" {
		userID, _ := c.Locals("userID").(string)
		history := pricing.NewHistory(pricing.NewGormHistoryStore(tenantDB))
		if _, err := history.Save(c.Context(), dto.ContractId, "update", nil, fiber.Map{
			"base_price":  calc.BasePrice,
			"final_price": calc.FinalPrice,
			"currency":    calc.Currency,
		}, dto.ChangeReason, &calc, userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not record pricing history")
		}
	}

	return c.JSON(calc)
}

func GetPricingHistory(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	history := pricing.NewHistory(pricing.NewGormHistoryStore(tenantDB))
	entries, err := history.ByContract(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load pricing history")
	}

	return c.JSON(fiber.Map{
		"history": entries,
		"message": "success",
	})
}

// RollbackPricing appends a compensating history entry; nothing is
// mutated or deleted.
func RollbackPricing(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	userID, _ := c.Locals("userID").(string)
	history := pricing.NewHistory(pricing.NewGormHistoryStore(tenantDB))
	entry, err := history.Rollback(c.Context(), c.Params("id"), userID)
	if errors.Is(err, pricing.ErrHistoryNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Pricing history entry not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not roll back pricing")
	}

	return c.JSON(entry)
}
