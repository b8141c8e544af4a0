package conversations

import (
	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/internal/dedup"
	"sms_chatbot_backend/internal/events"
	apphttp "sms_chatbot_backend/internal/http"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the conversations bounded context.
type Module struct {
	service *Service
	handler *Handler
}

// NewModule constructs the conversation repository, completion orchestrator,
// service and webhook handler. scheduler may be nil when retry queuing is
// disabled.
func NewModule(
	pool *pgxpool.Pool,
	provider *campaigns.Provider,
	notify notifier,
	contentClient *content.Client,
	scheduler retryScheduler,
	deduper dedup.Deduper,
	bus events.Bus,
	validate *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := NewRepository(pool)
	orchestrator := NewOrchestrator(repo, contentClient, contentClient, notify, scheduler, bus, log)
	service := NewService(repo, notify, provider, orchestrator, bus, log)

	return &Module{
		service: service,
		handler: NewHandler(service, provider, deduper, validate, log),
	}
}

// Name implements http.Module.
func (m *Module) Name() string { return "conversations" }

// Service exposes the conversation service for the retry worker.
func (m *Module) Service() *Service { return m.service }

// RegisterRoutes mounts the gateway webhook endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/chatbot/:endpoint", m.handler.Inbound)
}
