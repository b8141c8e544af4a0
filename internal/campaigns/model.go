// Package campaigns manages per-campaign reportback configuration: the
// external endpoint a campaign listens on, the content-system campaign ids,
// and the opt-in path ids used for each outbound chatbot message.
package campaigns

import (
	"time"

	"github.com/google/uuid"
)

// Config is the reportback configuration for a single campaign. Endpoint is
// the URL slug inbound webhook calls address (POST /v1/chatbot/:endpoint).
type Config struct {
	ID                  uuid.UUID `json:"id"`
	Endpoint            string    `json:"endpoint"`
	ContentCampaignID   int64     `json:"contentCampaignId"`
	CompletedCampaignID int64     `json:"completedCampaignId"`
	OptOutCampaignID    int64     `json:"optOutCampaignId"`
	MsgNotAPhoto        int64     `json:"msgNotAPhoto"`
	MsgAskCaption       int64     `json:"msgAskCaption"`
	MsgAskQuantity      int64     `json:"msgAskQuantity"`
	MsgAskWhy           int64     `json:"msgAskWhy"`
	MsgComplete         int64     `json:"msgComplete"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
