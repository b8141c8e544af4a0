package conversations

import (
	"errors"
	"net/http"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/dedup"
	"sms_chatbot_backend/platform/apperr"
	"sms_chatbot_backend/platform/httpkit"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/phone"
	"sms_chatbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler receives inbound webhook deliveries from the messaging gateway.
type Handler struct {
	service  *Service
	provider campaignSource
	deduper  dedup.Deduper
	validate *validator.Validator
	log      *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(service *Service, provider campaignSource, deduper dedup.Deduper, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		provider: provider,
		deduper:  deduper,
		validate: validate,
		log:      log,
	}
}

// Inbound handles POST /v1/chatbot/:endpoint.
//
// Completion failures still answer 200: the record is kept and retried
// internally, and a non-2xx would make the gateway redeliver the message
// and re-run the member-facing notifications. Only persistence failures
// surface as 500 so the gateway redelivers a message that had no effect.
func (h *Handler) Inbound(c *gin.Context) {
	var req inboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid inbound payload").WithDetails(err.Error()))
		return
	}

	endpoint := c.Param("endpoint")
	ctx := c.Request.Context()

	campaign, err := h.provider.ByEndpoint(ctx, endpoint)
	if errors.Is(err, campaigns.ErrNotFound) {
		httpkit.HandleError(c, apperr.NotFound(ErrUnknownCampaign.Error()))
		return
	}
	if err != nil {
		h.log.Error("campaign lookup failed", "error", err, "endpoint", endpoint)
		httpkit.HandleError(c, apperr.Internal("campaign lookup failed"))
		return
	}

	if req.MessageID != "" {
		seen, err := h.deduper.Seen(ctx, endpoint+":"+req.MessageID)
		if err != nil {
			h.log.Warn("dedup check failed, processing anyway", "error", err)
		} else if seen {
			httpkit.OK(c, gin.H{"status": "duplicate"})
			return
		}
	}

	normalized := phone.Digits(phone.NormalizeE164(req.Phone))
	err = h.service.HandleInbound(ctx, campaign, InboundMessage{
		Phone:                  normalized,
		Text:                   req.Args,
		MediaURL:               req.MMSImageURL,
		ProviderMessageID:      req.MessageID,
		FirstCompletedCampaign: req.FirstCompletedCampaignFlag,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInternal) {
			httpkit.HandleError(c, apperr.Internal("message could not be processed"))
			return
		}
		// Completion failure: acknowledged, retried internally.
		h.log.Warn("completion failed on inbound message", "error", err, "endpoint", endpoint)
		httpkit.JSON(c, http.StatusOK, gin.H{"status": "accepted", "completion": "deferred"})
		return
	}

	httpkit.OK(c, gin.H{"status": "ok"})
}
