package gateway

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"mspdesk-backend/models"
	"mspdesk-backend/ratelimit"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

const anonymousKey = "anonymous"

// DispatchFunc routes a validated request to business logic. Handlers
// are registered per endpoint id; unregistered endpoints get the stub
// success response.
type DispatchFunc func(c *fiber.Ctx, endpoint *models.Endpoint) error

// Gateway enforces cross-cutting policy for registered endpoints:
// resolution, deprecation, auth, rate limiting, body validation and
// request logging. Business routing lives behind DispatchFunc.
type Gateway struct {
	endpoints EndpointStore
	validator *Validator
	limiter   ratelimit.Limiter
	logger    RequestLogger
	handlers  map[string]DispatchFunc
	now       func() time.Time
}

func New(endpoints EndpointStore, validator *Validator, limiter ratelimit.Limiter, logger RequestLogger) *Gateway {
	return &Gateway{
		endpoints: endpoints,
		validator: validator,
		limiter:   limiter,
		logger:    logger,
		handlers:  make(map[string]DispatchFunc),
		now:       time.Now,
	}
}

// Register installs a business handler for one endpoint id.
func (g *Gateway) Register(endpointID string, fn DispatchFunc) {
	g.handlers[endpointID] = fn
}

// Handler returns the Fiber handler to mount under a wildcard route.
// Stage order per request: resolve endpoint, deprecation check, auth,
// rate limit, body validation (non-GET), dispatch, log, respond.
func (g *Gateway) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		setCORS(c)

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusOK)
		}

		tenantID := c.Get("X-Tenant-Schema")
		if tenantID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Tenant not specified"})
		}

		path := "/" + strings.TrimPrefix(c.Params("*"), "/")
		start := g.now()

		endpoint, err := g.endpoints.Resolve(c.Context(), tenantID, path, c.Method())
		if err != nil {
			log.Printf("endpoint resolution failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
		if endpoint == nil {
			// No endpoint to attribute the request to; logging skipped.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Endpoint not found"})
		}

		if endpoint.Deprecated {
			return g.respond(c, start, tenantID, "", fiber.StatusGone, fiber.Map{
				"error":                "Endpoint deprecated",
				"replacement_endpoint": endpoint.ReplacementEndpoint,
				"deprecation_date":     endpoint.DeprecationDate,
			})
		}

		result := g.validator.Validate(c.Context(), bearerToken(c), c.Get("X-API-Key"), endpoint)
		if !result.Valid {
			return g.respond(c, start, tenantID, result.UserID, fiber.StatusUnauthorized, fiber.Map{"error": result.Error})
		}

		limitKey := result.UserID
		if limitKey == "" {
			limitKey = c.IP()
		}
		if limitKey == "" {
			limitKey = anonymousKey
		}
		limitKey = tenantID + ":" + limitKey
		limit, err := g.limiter.Check(c.Context(), limitKey, endpoint.RateLimitPerMinute)
		if err != nil {
			// Fail open: a limiter outage must not take user traffic down.
			log.Printf("rate limit check failed for %s: %v", limitKey, err)
			limit = ratelimit.Result{Allowed: true, Remaining: 0}
		}
		if !limit.Allowed {
			reset := g.now().Truncate(time.Minute).Add(time.Minute)
			c.Set("X-RateLimit-Limit", itoa(endpoint.RateLimitPerMinute))
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("X-RateLimit-Reset", itoa64(reset.Unix()))
			return g.respond(c, start, tenantID, result.UserID, fiber.StatusTooManyRequests, fiber.Map{"error": "Rate limit exceeded"})
		}

		if c.Method() != fiber.MethodGet && endpoint.ValidationEnabled {
			schema, err := ParseSchema(endpoint.RequestSchema)
			if err != nil {
				log.Printf("endpoint %s has unparseable request schema: %v", endpoint.Id, err)
			} else if schema != nil {
				var body map[string]any
				if err := json.Unmarshal(c.Body(), &body); err != nil {
					return g.respond(c, start, tenantID, result.UserID, fiber.StatusBadRequest, fiber.Map{
						"error":  "Validation failed",
						"errors": []string{"Request body must be a JSON object"},
					})
				}
				if ok, errs := ValidateBody(body, schema); !ok {
					return g.respond(c, start, tenantID, result.UserID, fiber.StatusBadRequest, fiber.Map{
						"error":  "Validation failed",
						"errors": errs,
					})
				}
			}
		}

		if fn, ok := g.handlers[endpoint.Id]; ok {
			err := fn(c, endpoint)
			g.logRequest(c, tenantID, result.UserID, c.Response().StatusCode(), g.now().Sub(start))
			return err
		}

		return g.respond(c, start, tenantID, result.UserID, fiber.StatusOK, fiber.Map{
			"message": "Request processed successfully",
			"endpoint": fiber.Map{
				"id":      endpoint.Id,
				"path":    endpoint.Path,
				"method":  endpoint.Method,
				"version": endpoint.Version,
			},
		})
	}
}

// respond writes the JSON response, then logs the request best-effort.
func (g *Gateway) respond(c *fiber.Ctx, start time.Time, tenantID, userID string, status int, payload any) error {
	c.Status(status)
	err := c.JSON(payload)
	g.logRequest(c, tenantID, userID, status, g.now().Sub(start))
	return err
}

// logRequest persists the audit row. Failures are reported to the
// console and swallowed: a logging outage never blocks traffic.
func (g *Gateway) logRequest(c *fiber.Ctx, tenantID, userID string, status int, duration time.Duration) {
	if g.logger == nil {
		return
	}

	entry := &models.RequestLog{
		TenantId:    tenantID,
		Method:      c.Method(),
		Path:        c.Path(),
		QueryParams: toJSON(c.Queries()),
		Headers:     toJSON(sanitizeHeaders(c.GetReqHeaders())),
		Body:        bodyJSON(c.Body()),
		StatusCode:  status,
		DurationMs:  duration.Milliseconds(),
		ClientIP:    c.IP(),
		UserAgent:   c.Get("User-Agent"),
		UserID:      userID,
	}
	if err := g.logger.Log(c.Context(), entry); err != nil {
		log.Printf("request log write failed: %v", err)
	}
}

func setCORS(c *fiber.Ctx) {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-api-key")
	c.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// sanitizeHeaders drops credentials before they reach the audit log.
func sanitizeHeaders(headers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization", "x-api-key", "cookie":
			out[k] = []string{"[redacted]"}
		default:
			out[k] = v
		}
	}
	return out
}

func toJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func bodyJSON(body []byte) datatypes.JSON {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return datatypes.JSON(append([]byte(nil), body...))
	}
	return toJSON(string(body))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
