package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/recruit-api/internal/handler/prometheus"
	"github.com/jwalitptl/recruit-api/internal/middleware"
	"github.com/jwalitptl/recruit-api/pkg/auth"
	"github.com/jwalitptl/recruit-api/pkg/logger"
)

const streamPath = "/api/v1/push/stream"

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups route handlers by audience.
type Handlers struct {
	Health       Handler
	Confirmation Handler
	Payment      Handler
	Booking      Handler
	Push         Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Timeout          middleware.TimeoutConfig
	Metrics          *prometheus.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
	limiter  *middleware.RateLimiter
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, log *logger.Logger, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
	)
	if config.Metrics != nil {
		engine.Use(config.Metrics.Middleware())
	}

	timeout := config.Timeout
	timeout.SkipPrefixes = append(timeout.SkipPrefixes, streamPath)
	engine.Use(
		middleware.Timeout(timeout),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
	)

	if config.RateLimitEnabled {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.handlers.Health.RegisterRoutes(api)
	if r.config.Metrics != nil {
		api.GET("/metrics", r.config.Metrics.Handler())
	}

	// Confirmation links are public; the token is the credential.
	public := api.Group("")
	if r.limiter != nil {
		public.Use(r.limiter.RateLimit())
	}
	r.handlers.Confirmation.RegisterRoutes(public)

	admin := api.Group("")
	admin.Use(r.auth.Authenticate(), r.auth.RequireRole(auth.RoleAdmin))
	r.handlers.Payment.RegisterRoutes(admin)
	r.handlers.Booking.RegisterRoutes(admin)

	users := api.Group("")
	users.Use(r.auth.Authenticate())
	r.handlers.Push.RegisterRoutes(users)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
