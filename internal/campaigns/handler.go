package campaigns

import (
	"errors"
	"net/http"

	"sms_chatbot_backend/platform/apperr"
	"sms_chatbot_backend/platform/httpkit"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// createRequest is the admin payload for registering a campaign config.
type createRequest struct {
	Endpoint            string `json:"endpoint" validate:"required,min=1,max=128"`
	ContentCampaignID   int64  `json:"contentCampaignId" validate:"required,gt=0"`
	CompletedCampaignID int64  `json:"completedCampaignId" validate:"gte=0"`
	OptOutCampaignID    int64  `json:"optOutCampaignId" validate:"gte=0"`
	MsgNotAPhoto        int64  `json:"msgNotAPhoto" validate:"required,gt=0"`
	MsgAskCaption       int64  `json:"msgAskCaption" validate:"required,gt=0"`
	MsgAskQuantity      int64  `json:"msgAskQuantity" validate:"required,gt=0"`
	MsgAskWhy           int64  `json:"msgAskWhy" validate:"required,gt=0"`
	MsgComplete         int64  `json:"msgComplete" validate:"required,gt=0"`
}

// Handler exposes admin endpoints for campaign config management.
type Handler struct {
	provider *Provider
	validate *validator.Validator
	log      *logger.Logger
}

// NewHandler creates a campaign admin handler.
func NewHandler(provider *Provider, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{provider: provider, validate: validate, log: log}
}

// List handles GET /v1/admin/campaigns.
func (h *Handler) List(c *gin.Context) {
	configs, err := h.provider.List(c.Request.Context())
	if err != nil {
		h.log.Error("list campaigns failed", "error", err)
		httpkit.HandleError(c, apperr.Internal("could not list campaigns"))
		return
	}
	if configs == nil {
		configs = []Config{}
	}
	httpkit.OK(c, configs)
}

// Create handles POST /v1/admin/campaigns.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid campaign config").WithDetails(err.Error()))
		return
	}

	created, err := h.provider.Create(c.Request.Context(), &Config{
		Endpoint:            req.Endpoint,
		ContentCampaignID:   req.ContentCampaignID,
		CompletedCampaignID: req.CompletedCampaignID,
		OptOutCampaignID:    req.OptOutCampaignID,
		MsgNotAPhoto:        req.MsgNotAPhoto,
		MsgAskCaption:       req.MsgAskCaption,
		MsgAskQuantity:      req.MsgAskQuantity,
		MsgAskWhy:           req.MsgAskWhy,
		MsgComplete:         req.MsgComplete,
	})
	if errors.Is(err, ErrDuplicateEndpoint) {
		httpkit.HandleError(c, apperr.Conflict("endpoint already registered"))
		return
	}
	if err != nil {
		h.log.Error("create campaign failed", "error", err, "endpoint", req.Endpoint)
		httpkit.HandleError(c, apperr.Internal("could not create campaign"))
		return
	}

	httpkit.JSON(c, http.StatusCreated, created)
}

// Reload handles POST /v1/admin/campaigns/reload.
func (h *Handler) Reload(c *gin.Context) {
	if err := h.provider.Reload(c.Request.Context()); err != nil {
		h.log.Error("campaign reload failed", "error", err)
		httpkit.HandleError(c, apperr.Internal("could not reload campaigns"))
		return
	}
	httpkit.OK(c, gin.H{"status": "reloaded"})
}
