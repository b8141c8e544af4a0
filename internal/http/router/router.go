// Package router assembles the Gin engine from the application's modules.
package router

import (
	"crypto/subtle"
	"net/http"

	apphttp "sms_chatbot_backend/internal/http"
	"sms_chatbot_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// WebhookKeyHeader carries the shared key the messaging gateway includes on
// every inbound webhook call.
const WebhookKeyHeader = "X-Chatbot-Api-Key"

// New builds the HTTP engine: global middleware, health endpoint, and the
// route groups each module registers against.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(20), 40, app.Logger)
	engine.Use(limiter.RateLimit())

	engine.GET("/health", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	v1.Use(webhookKeyRequired(app))

	admin := engine.Group("/v1/admin")
	admin.Use(httpkit.AuthRequired(app.Config))
	admin.Use(httpkit.RequireRole("admin"))

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     v1,
		Admin:  admin,
		Config: app.Config,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(ctx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

// webhookKeyRequired rejects gateway webhook calls that lack the shared key.
func webhookKeyRequired(app *apphttp.App) gin.HandlerFunc {
	expected := []byte(app.Config.GetWebhookAPIKey())
	return func(c *gin.Context) {
		provided := []byte(c.GetHeader(WebhookKeyHeader))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			app.Logger.Warn("webhook call with invalid api key", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if app.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = app.Config.GetCORSOrigins()
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", WebhookKeyHeader)
	return cors.New(corsConfig)
}
