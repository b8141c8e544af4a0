package conversations

// inboundRequest is the gateway's webhook payload for one inbound message.
// Field names follow the gateway's wire format.
type inboundRequest struct {
	Phone                      string `json:"phone" validate:"required,min=10,max=16"`
	Args                       string `json:"args"`
	MMSImageURL                string `json:"mms_image_url"`
	MessageID                  string `json:"message_id"`
	FirstCompletedCampaignFlag bool   `json:"first_completed_campaign_flag"`
}
