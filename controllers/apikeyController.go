package controllers

import (
	"time"

	"mspdesk-backend/database"
	"mspdesk-backend/gateway"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createAPIKeyDTO struct {
	Name      string     `json:"name" validate:"required,min=2"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateAPIKey issues a new key. The plaintext is returned exactly
// once; only its hash is stored.
func CreateAPIKey(c *fiber.Ctx) error {
	var dto createAPIKeyDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	rawKey := "msk_" + uuid.NewString()
	key := models.APIKey{
		TenantId:  schema,
		Name:      dto.Name,
		KeyHash:   gateway.HashKey(rawKey),
		IsActive:  true,
		ExpiresAt: dto.ExpiresAt,
	}

	if err := database.DB.Create(&key).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create API key",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"api_key": key,
		"key":     rawKey,
		"message": "store this key now, it will not be shown again",
	})
}

func GetAPIKeys(c *fiber.Ctx) error {
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	var keys []models.APIKey
	if err := database.DB.Where("tenant_id = ?", schema).Find(&keys).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not list API keys")
	}

	return c.JSON(fiber.Map{
		"api_keys": keys,
		"message":  "success",
	})
}
