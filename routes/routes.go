package routes

import (
	"github.com/gofiber/fiber/v2"

	"mspdesk-backend/controllers"
	"mspdesk-backend/gateway"
	"mspdesk-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, gw *gateway.Gateway) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Clients
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)

	// Gateway endpoint registry
	protected.Post("/endpoint", controllers.CreateEndpoint)
	protected.Get("/endpoints", controllers.GetEndpoints)
	protected.Put("/endpoint/:id", controllers.UpdateEndpoint)

	// API keys
	protected.Post("/apikey", controllers.CreateAPIKey)
	protected.Get("/apikeys", controllers.GetAPIKeys)

	// Contracts (lifecycle + approvals)
	protected.Post("/contract", controllers.CreateContract)
	protected.Get("/contracts", controllers.GetContracts)
	protected.Get("/contract/:id", controllers.GetContract)
	protected.Get("/contract/:id/transitions", controllers.ContractTransitions)
	protected.Put("/contract/:id/status", controllers.UpdateContractStatus)
	protected.Post("/contract/:id/approvals", controllers.InitiateApproval)
	protected.Put("/approvals/:id", controllers.ProcessApproval)

	// Pricing
	protected.Post("/pricing/calculate", controllers.CalculatePricing)
	protected.Get("/contract/:id/pricing-history", controllers.GetPricingHistory)
	protected.Post("/pricing-history/:id/rollback", controllers.RollbackPricing)

	// Gateway: registered tenant endpoints behind policy enforcement.
	// Runs its own auth/rate-limit stack, so it is mounted outside the
	// /api middleware chain.
	app.All("/gateway/*", gw.Handler())
}
