// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/handlers"
	"github.com/amirphl/LinkHub/app/middleware"
	"github.com/amirphl/LinkHub/config"
	_ "github.com/amirphl/LinkHub/docs"
	"github.com/amirphl/LinkHub/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth      handlers.AuthHandlerInterface
	Links     handlers.LinkHandlerInterface
	Clicks    *handlers.ClickHandler
	Analytics *handlers.AnalyticsHandler
	Profile   *handlers.ProfileHandler
	Public    *handlers.PublicHandler
	Health    *handlers.HealthHandler
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app       *fiber.App
	cfg       *config.Config
	handlers  Handlers
	auth      *middleware.AuthMiddleware
	accessLog io.Writer
}

// NewFiberRouter creates a new Fiber router; the access log goes to accessLog, or stdout when nil
func NewFiberRouter(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware, accessLog io.Writer) Router {
	if accessLog == nil {
		accessLog = os.Stdout
	}

	app := fiber.New(fiber.Config{
		AppName:      "LinkHub API",
		ServerHeader: "LinkHub",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		// Client IPs come from ProxyHeader only when the peer is a trusted proxy
		ProxyHeader: cfg.Server.ProxyHeader,
		TrustProxy:  cfg.Server.TrustProxy,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies:   cfg.Server.TrustedProxies,
			Loopback:  true,
			Private:   true,
			LinkLocal: true,
		},
		EnableIPValidation: true,
	})

	return &FiberRouter{
		app:       app,
		cfg:       cfg,
		handlers:  h,
		auth:      auth,
		accessLog: accessLog,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Info().Msg("Setting up routes")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	r.app.Get("/static/avatars*", static.New(r.cfg.Storage.AvatarDir, static.Config{
		MaxAge: int((24 * time.Hour).Seconds()),
	}))

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.handlers.Health.Health)

	if r.cfg.Deployment.IsDevelopment() {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Info().Msg("API documentation enabled for development")
	}

	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit, func(c fiber.Ctx) bool {
		return c.Path() == "/api/v1/health"
	}))

	requireAuth := r.auth.Authenticate()

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(r.rateLimiter(r.cfg.Security.AuthRateLimit, nil))
	auth.Post("/signup", r.handlers.Auth.Signup)
	auth.Post("/login", r.handlers.Auth.Login)
	auth.Post("/refresh", r.handlers.Auth.Refresh)
	auth.Post("/logout", requireAuth, r.handlers.Auth.Logout)
	auth.Get("/me", requireAuth, r.handlers.Auth.Me)
	auth.Get("/google/login", r.handlers.Auth.GoogleLogin)
	auth.Get("/google/callback", r.handlers.Auth.GoogleCallback)

	links := api.Group("/links", requireAuth)
	links.Get("/", r.handlers.Links.ListLinks)
	links.Post("/", r.handlers.Links.CreateLink)
	links.Put("/reorder", r.handlers.Links.ReorderLinks)
	links.Put("/:id", r.handlers.Links.UpdateLink)
	links.Delete("/:id", r.handlers.Links.DeleteLink)

	analytics := api.Group("/analytics")
	analytics.Get("/overview", requireAuth, r.handlers.Analytics.Overview)
	analytics.Get("/detailed", requireAuth, r.handlers.Analytics.Detailed)
	analytics.Get("/export", requireAuth, r.handlers.Analytics.Export)
	analytics.Post("/pageview", r.handlers.Analytics.PageView)

	clickLimiter := r.rateLimiter(r.cfg.Security.ClickRateLimit, nil)
	api.Post("/clicks", clickLimiter, r.handlers.Clicks.RecordClick)
	api.Get("/r/:id", clickLimiter, r.handlers.Clicks.Redirect)

	users := api.Group("/users", requireAuth)
	users.Get("/profile", r.handlers.Profile.GetProfile)
	users.Put("/profile", r.handlers.Profile.UpdateProfile)
	users.Get("/dashboard", r.handlers.Profile.Dashboard)
	users.Post("/avatar", r.handlers.Profile.UploadAvatar)

	public := api.Group("/public")
	public.Get("/profile/:username", r.handlers.Public.Profile)
	public.Get("/profile/:username/qr", cache.New(cache.Config{
		Expiration: time.Hour,
	}), r.handlers.Public.QRCode)
	public.Get("/username/:username/available", r.handlers.Public.UsernameAvailable)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Info().Msg("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Error().
				Str("request_id", requestid.FromContext(c)).
				Str("event", "panic").
				Interface("error", e).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("ip", c.IP()).
				Msg("recovered from panic")
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data: https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	origins := r.cfg.Security.AllowedOrigins
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: r.cfg.Security.AllowCredentials && !slices.Contains(origins, "*"),
		MaxAge:           utils.CORSMaxAge,
	}))

	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Stream:     r.accessLog,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
		},
	}))
}

// rateLimiter limits requests per client IP over the configured window
func (r *FiberRouter) rateLimiter(max int, next func(c fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: next,
	})
}

func (r *FiberRouter) Start(address string) error {
	log.Info().Str("address", address).Msg("Starting server")
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.SendString(doc)
}

func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(swaggerUIPage)
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>LinkHub API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errorCode := "INTERNAL_ERROR"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			message = fe.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	event := log.Warn()
	if code >= fiber.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", code).Str("path", c.Path()).Msg("request error")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestid.FromContext(c),
			},
		},
	})
}

func generateRequestID() string {
	return uuid.NewString()
}
