package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"mspdesk-backend/middlewares"

	"github.com/gofiber/fiber/v2"
)

func endpointTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("schema", "acme")
		return c.Next()
	})
	app.Post("/endpoint", CreateEndpoint)
	return app
}

func TestCreateEndpointRejectsUnparseableSchema(t *testing.T) {
	app := endpointTestApp()

	// required must be an array of field names; a bare string cannot be
	// applied by the gateway at request time
	body := `{
		"path": "/clients",
		"method": "POST",
		"validation_enabled": true,
		"request_schema": {"required": "name"}
	}`
	req := httptest.NewRequest("POST", "/endpoint", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (malformed schemas must be rejected at registration)", resp.StatusCode)
	}
}

func TestCreateEndpointRejectsBadPropertyTypes(t *testing.T) {
	app := endpointTestApp()

	body := `{
		"path": "/clients",
		"method": "POST",
		"validation_enabled": true,
		"request_schema": {"properties": {"name": {"minLength": "three"}}}
	}`
	req := httptest.NewRequest("POST", "/endpoint", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
