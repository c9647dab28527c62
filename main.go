package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"mspdesk-backend/contracts"
	"mspdesk-backend/database"
	"mspdesk-backend/gateway"
	"mspdesk-backend/middlewares"
	"mspdesk-backend/models"
	"mspdesk-backend/ratelimit"
	"mspdesk-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	// ---- Database (public)
	database.Connect()
	database.AutoMigrate()

	// ---- Limits (configurable via env)
	// Fiber default BodyLimit is 4 * 1024 * 1024 bytes if unset (per docs).
	// We allow overriding with BODY_LIMIT_BYTES or BODY_LIMIT_MB.
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Tenant-Schema, X-API-Key",
	}))

	// ---- Coarse global rate limiter (DoS guard in front of everything;
	// the gateway enforces its own per-endpoint limits)
	rlMax := envInt("RATE_LIMIT_MAX", 300)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Gateway policy stack
	gw, err := buildGateway()
	if err != nil {
		log.Fatal("failed to build gateway: ", err)
	}

	// ---- Routes
	routes.Register(app, gw)

	// ---- Approval timeout sweep
	go sweepApprovalTimeouts(time.Duration(envInt("SWEEP_INTERVAL_MINUTES", 60)) * time.Minute)

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		panic(err)
	}
	fmt.Println("API server started on port", port)
}

// buildGateway assembles the dispatcher: endpoint registry, auth
// chain, rate limiter and request logger. The limiter backend is
// in-process by default; RATE_LIMIT_BACKEND=redis switches to a
// shared Redis counter for multi-instance deployments.
func buildGateway() (*gateway.Gateway, error) {
	secret, err := middlewares.Secret()
	if err != nil {
		return nil, err
	}

	var lim ratelimit.Limiter
	if os.Getenv("RATE_LIMIT_BACKEND") == "redis" {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			redisURL = "redis://localhost:6379"
		}
		rl, err := ratelimit.NewRedis(redisURL)
		if err != nil {
			return nil, err
		}
		lim = rl
	} else {
		lim = ratelimit.NewMemory()
	}

	validator := gateway.NewValidator(
		gateway.NewJWTVerifier(secret),
		gateway.NewGormRoleStore(database.DB),
		gateway.NewGormKeyStore(database.DB),
	)

	return gateway.New(
		gateway.NewGormEndpointStore(database.DB),
		validator,
		lim,
		gateway.NewGormRequestLogger(database.DB),
	), nil
}

// sweepApprovalTimeouts periodically marks overdue pending workflows
// as timed out, across every tenant schema.
func sweepApprovalTimeouts(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		var companies []models.Company
		if err := database.DB.Find(&companies).Error; err != nil {
			log.Printf("timeout sweep: could not list tenants: %v", err)
			continue
		}

		for _, company := range companies {
			tenantDB, err := database.GetTenantDB(company.SchemaName)
			if err != nil {
				log.Printf("timeout sweep: tenant %s: %v", company.SchemaName, err)
				continue
			}
			tracker := contracts.NewTracker(contracts.NewGormWorkflowStore(tenantDB))
			swept, err := tracker.SweepTimeouts(context.Background())
			if err != nil {
				log.Printf("timeout sweep: tenant %s: %v", company.SchemaName, err)
				continue
			}
			if swept > 0 {
				log.Printf("timeout sweep: tenant %s: %d workflow(s) timed out", company.SchemaName, swept)
			}
		}
	}
}
