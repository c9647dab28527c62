package controllers

import (
	"mspdesk-backend/database"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/models"
	"mspdesk-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type createClientDTO struct {
	CompanyName string `json:"company_name" validate:"required,min=2"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Zip         string `json:"zip"`
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	PhoneNumber string `json:"phone_number"`
}

type updateClientDTO struct {
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Country     *string `json:"country"`
	Zip         *string `json:"zip"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func CreateClient(c *fiber.Ctx) error {
	var dto createClientDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	client := models.Client{
		CompanyName: dto.CompanyName,
		Address:     dto.Address,
		City:        dto.City,
		Country:     dto.Country,
		Zip:         dto.Zip,
		Email:       dto.Email,
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		PhoneNumber: dto.PhoneNumber,
		Status:      "active",
	}

	if err := tenantDB.Create(&client).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create client",
			"error":   err.Error(),
		})
	}

	return c.JSON(client)
}

func GetClients(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	var clients []models.Client
	if err := tenantDB.Find(&clients).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not list clients")
	}

	return c.JSON(fiber.Map{
		"clients": clients,
		"message": "success",
	})
}

func GetClient(c *fiber.Ctx) error {
	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	var client models.Client
	if err := tenantDB.First(&client, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}

	return c.JSON(client)
}

func UpdateClient(c *fiber.Ctx) error {
	var dto updateClientDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	tenantDB, err := database.TenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Could not retrieve tenant schema")
	}

	res := tenantDB.Model(&models.Client{}).Where("id = ?", c.Params("id")).Updates(updates)
	if res.Error != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not update client",
			"error":   res.Error.Error(),
		})
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}

	var client models.Client
	tenantDB.First(&client, "id = ?", c.Params("id"))
	return c.JSON(client)
}
