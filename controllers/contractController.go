package controllers

import (
	"errors"
	"log"
	"time"

	"mspdesk-backend/contracts"
	"mspdesk-backend/database"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/models"

	"github.com/gofiber/fiber/v2"
)

type createContractDTO struct {
	ClientId      uint       `json:"client_id" validate:"required"`
	Title         string     `json:"title" validate:"required,min=2"`
	TotalValue    float64    `json:"total_value" validate:"omitempty,min=0"`
	Currency      string     `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	RenewalDate   *time.Time `json:"renewal_date"`
	AutoRenewal   bool       `json:"auto_renewal"`
	PricingRuleId *string    `json:"pricing_rule_id"`
}

type updateStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=draft active expired terminated"`
	Reason string `json:"reason"`
}

type initiateApprovalDTO struct {
	TargetStatus string `json:"target_status" validate:"required,oneof=active expired terminated"`
	TimeoutHours int    `json:"timeout_hours" validate:"omitempty,min=1"`
}

type processApprovalDTO struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comments string `json:"comments"`
}

func CreateContract(c *fiber.Ctx) error {
	var dto createContractDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	if dto.Currency == "" {
		dto.Currency = "USD"
	}

	contract := models.Contract{
		ClientId:      dto.ClientId,
		Title:         dto.Title,
		Status:        models.ContractDraft,
		TotalValue:    dto.TotalValue,
		Currency:      dto.Currency,
		StartDate:     dto.StartDate,
		EndDate:       dto.EndDate,
		RenewalDate:   dto.RenewalDate,
		AutoRenewal:   dto.AutoRenewal,
		PricingRuleId: dto.PricingRuleId,
	}

	if err := tenantDB.Create(&contract).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create contract",
			"error":   err.Error(),
		})
	}

	return c.JSON(contract)
}

func GetContracts(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	var list []models.Contract
	query := tenantDB.Preload("Client")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&list).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not list contracts")
	}

	return c.JSON(fiber.Map{
		"contracts": list,
		"message":   "success",
	})
}

func GetContract(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	svc := contracts.NewService(tenantDB)
	contract, err := svc.Get(c.Context(), c.Params("id"))
	if errors.Is(err, contracts.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Contract not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load contract")
	}

	return c.JSON(contract)
}

// ContractTransitions previews the valid next statuses for a contract,
// with the approval count each one requires.
func ContractTransitions(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	svc := contracts.NewService(tenantDB)
	contract, err := svc.Get(c.Context(), c.Params("id"))
	if errors.Is(err, contracts.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Contract not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load contract")
	}

	var valid []contracts.Transition
	for _, target := range contracts.Statuses() {
		if t := contracts.ValidateTransition(contract.Status, target); t.IsValid {
			valid = append(valid, t)
		}
	}

	return c.JSON(fiber.Map{
		"status":      contract.Status,
		"transitions": valid,
	})
}

func UpdateContractStatus(c *fiber.Ctx) error {
	var dto updateStatusDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	svc := contracts.NewService(tenantDB)
	err = svc.UpdateStatus(c.Context(), c.Params("id"), models.ContractStatus(dto.Status), dto.Reason)
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Contract not found")
	case errors.Is(err, contracts.ErrInvalidTransition):
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"isValid": false,
			"errors":  []string{err.Error()},
		})
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "Could not update contract status")
	}

	contract, _ := svc.Get(c.Context(), c.Params("id"))
	return c.JSON(fiber.Map{
		"success":  true,
		"contract": contract,
	})
}

// InitiateApproval starts the approval workflow a transition requires.
// The number of levels comes from the transition policy, not the
// caller.
func InitiateApproval(c *fiber.Ctx) error {
	var dto initiateApprovalDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	svc := contracts.NewService(tenantDB)
	contract, err := svc.Get(c.Context(), c.Params("id"))
	if errors.Is(err, contracts.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Contract not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load contract")
	}

	target := models.ContractStatus(dto.TargetStatus)
	t := contracts.ValidateTransition(contract.Status, target)
	if !t.IsValid {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"isValid": false,
			"errors":  []string{t.Reason},
		})
	}
	if t.RequiredApprovals == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Transition requires no approval")
	}

	userID, _ := c.Locals("userID").(string)
	tracker := contracts.NewTracker(contracts.NewGormWorkflowStore(tenantDB))
	workflow, err := tracker.Initiate(c.Context(), contract.Id, target, t.RequiredApprovals, dto.TimeoutHours, userID)
	if errors.Is(err, contracts.ErrWorkflowActive) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not initiate approval workflow")
	}

	return c.JSON(workflow)
}

// ProcessApproval records a decision. When the workflow completes
// approved, the gated status transition is applied.
func ProcessApproval(c *fiber.Ctx) error {
	var dto processApprovalDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	userID, _ := c.Locals("userID").(string)
	tracker := contracts.NewTracker(contracts.NewGormWorkflowStore(tenantDB))
	workflow, err := tracker.ProcessApproval(c.Context(), c.Params("id"), userID, dto.Decision, dto.Comments)
	switch {
	case errors.Is(err, contracts.ErrWorkflowNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Approval workflow not found")
	case errors.Is(err, contracts.ErrWorkflowComplete):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, contracts.ErrBadDecision):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(fiber.StatusInternalServerError, "Could not process approval")
	}

	if workflow.IsComplete && workflow.Status == models.WorkflowApproved {
		svc := contracts.NewService(tenantDB)
		if err := svc.UpdateStatus(c.Context(), workflow.ContractId, workflow.TargetStatus, "approved via workflow "+workflow.Id); err != nil {
			log.Printf("post-approval status update failed for contract %s: %v", workflow.ContractId, err)
		}
	}

	return c.JSON(workflow)
}
