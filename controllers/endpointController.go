package controllers

import (
	"encoding/json"
	"strings"
	"time"

	"mspdesk-backend/database"
	"mspdesk-backend/gateway"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/models"
	"mspdesk-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type createEndpointDTO struct {
	Path                string         `json:"path" validate:"required,startswith=/"`
	Method              string         `json:"method" validate:"required,oneof=GET POST PUT DELETE PATCH"`
	AuthRequired        bool           `json:"auth_required"`
	AllowedRoles        []string       `json:"allowed_roles"`
	APIKeyRequired      bool           `json:"api_key_required"`
	RateLimitPerMinute  int            `json:"rate_limit_per_minute" validate:"omitempty,min=1"`
	ValidationEnabled   bool           `json:"validation_enabled"`
	RequestSchema       map[string]any `json:"request_schema"`
	Deprecated          bool           `json:"deprecated"`
	ReplacementEndpoint string         `json:"replacement_endpoint"`
	DeprecationDate     *time.Time     `json:"deprecation_date"`
	Version             string         `json:"version"`
}

type updateEndpointDTO struct {
	AuthRequired        *bool   `json:"auth_required"`
	APIKeyRequired      *bool   `json:"api_key_required"`
	RateLimitPerMinute  *int    `json:"rate_limit_per_minute" validate:"omitempty,min=1"`
	ValidationEnabled   *bool   `json:"validation_enabled"`
	Deprecated          *bool   `json:"deprecated"`
	ReplacementEndpoint *string `json:"replacement_endpoint"`
	Version             *string `json:"version"`
	IsActive            *bool   `json:"is_active"`
}

// Endpoint descriptors live in the public schema keyed by tenant id,
// so the caller's schema scopes every operation here.

func CreateEndpoint(c *fiber.Ctx) error {
	var dto createEndpointDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	if dto.RateLimitPerMinute == 0 {
		dto.RateLimitPerMinute = 60
	}
	if dto.Version == "" {
		dto.Version = "v1"
	}

	endpoint := models.Endpoint{
		Id:                  uuid.NewString(),
		TenantId:            schema,
		Path:                dto.Path,
		Method:              strings.ToUpper(dto.Method),
		AuthRequired:        dto.AuthRequired,
		APIKeyRequired:      dto.APIKeyRequired,
		RateLimitPerMinute:  dto.RateLimitPerMinute,
		ValidationEnabled:   dto.ValidationEnabled,
		Deprecated:          dto.Deprecated,
		ReplacementEndpoint: dto.ReplacementEndpoint,
		DeprecationDate:     dto.DeprecationDate,
		Version:             dto.Version,
		IsActive:            true,
	}
	if len(dto.AllowedRoles) > 0 {
		endpoint.AllowedRoles = mustJSON(dto.AllowedRoles)
	}
	if len(dto.RequestSchema) > 0 {
		raw := mustJSON(dto.RequestSchema)
		// Reject schemas the gateway could not apply; a blob that fails
		// to parse at request time would silently skip body validation.
		if _, err := gateway.ParseSchema(raw); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request_schema: "+err.Error())
		}
		endpoint.RequestSchema = raw
	}

	if err := database.DB.Create(&endpoint).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not register endpoint",
			"error":   err.Error(),
		})
	}

	return c.JSON(endpoint)
}

func GetEndpoints(c *fiber.Ctx) error {
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	var endpoints []models.Endpoint
	if err := database.DB.Where("tenant_id = ?", schema).Find(&endpoints).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not list endpoints")
	}

	return c.JSON(fiber.Map{
		"endpoints": endpoints,
		"message":   "success",
	})
}

func UpdateEndpoint(c *fiber.Ctx) error {
	var dto updateEndpointDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	res := database.DB.Model(&models.Endpoint{}).
		Where("id = ? AND tenant_id = ?", c.Params("id"), schema).
		Updates(updates)
	if res.Error != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update endpoint",
			"error":   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Endpoint not found")
	}

	var endpoint models.Endpoint
	database.DB.First(&endpoint, "id = ?", c.Params("id"))
	return c.JSON(endpoint)
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
