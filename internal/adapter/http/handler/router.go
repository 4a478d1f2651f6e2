package handler

import (
	"net/http"

	"funding-ledger/internal/adapter/http/middleware"
	redisStore "funding-ledger/internal/adapter/storage/redis"
	"funding-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	RoundSvc       ports.RoundService
	WithdrawalSvc  ports.WithdrawalService
	LedgerSvc      ports.LedgerService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	ServiceName    string // OTel instrumentation name
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(otelgin.Middleware(deps.ServiceName))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes — everything requires a bearer token from the identity
	// collaborator.
	v1 := r.Group("/api/v1")
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	roundHandler := NewRoundHandler(deps.RoundSvc)
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)

	rounds := v1.Group("/rounds", jwtAuth)
	{
		rounds.POST("", rl("rounds_create"), roundHandler.CreateRound)
		rounds.GET("", rl("reads"), roundHandler.ListRounds)
		rounds.GET("/:id", rl("reads"), roundHandler.GetRound)
		rounds.POST("/:id/contributions", rl("contributions"), roundHandler.Contribute)
		rounds.GET("/:id/contributions", rl("reads"), roundHandler.ListContributions)
		rounds.GET("/:id/balance", rl("reads"), withdrawalHandler.GetBalance)
		rounds.GET("/:id/return", rl("reads"), withdrawalHandler.GetReturn)
	}

	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("", rl("withdrawals"), withdrawalHandler.RequestWithdrawal)
		withdrawals.GET("", rl("reads"), withdrawalHandler.ListWithdrawals)
		withdrawals.POST("/:id/resolve", rl("withdrawals"), withdrawalHandler.ResolveWithdrawal)
	}

	ledger := v1.Group("/ledger", jwtAuth)
	{
		ledger.GET("", rl("reads"), ledgerHandler.GetLedger)
	}

	return r
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
