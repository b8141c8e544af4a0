package campaigns

import (
	apphttp "sms_chatbot_backend/internal/http"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the campaigns bounded context.
type Module struct {
	provider *Provider
	handler  *Handler
}

// NewModule constructs the campaigns module with its repository, provider
// and admin handler.
func NewModule(pool *pgxpool.Pool, validate *validator.Validator, log *logger.Logger) *Module {
	provider := NewProvider(NewRepository(pool), log)
	return &Module{
		provider: provider,
		handler:  NewHandler(provider, validate, log),
	}
}

// Name implements http.Module.
func (m *Module) Name() string { return "campaigns" }

// Provider exposes the cached config provider to other modules.
func (m *Module) Provider() *Provider { return m.provider }

// RegisterRoutes mounts the admin campaign endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/campaigns")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.POST("/reload", m.handler.Reload)
}
