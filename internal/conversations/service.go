package conversations

import (
	"context"
	"errors"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/sanitize"
)

// recordStore is the persistence surface of the conversation flow.
type recordStore interface {
	FindOrCreate(ctx context.Context, phone, campaign string) (*Record, bool, error)
	Find(ctx context.Context, phone, campaign string) (*Record, error)
	SetField(ctx context.Context, phone, campaign, field, value string) (*Record, error)
	Delete(ctx context.Context, phone, campaign string) error
}

// campaignSource resolves campaign configs for retries.
type campaignSource interface {
	ByEndpoint(ctx context.Context, endpoint string) (*campaigns.Config, error)
}

// InboundMessage is one gateway delivery addressed to a campaign endpoint.
type InboundMessage struct {
	Phone             string
	Text              string
	MediaURL          string
	ProviderMessageID string
	// FirstCompletedCampaign marks the member's first ever campaign
	// completion, recorded on their gateway profile when this conversation
	// completes.
	FirstCompletedCampaign bool
}

// Service advances reportback conversations. Each inbound message is applied
// against the state derived from the stored record: either it fills the next
// field and the member is prompted for the following one, or it re-triggers
// the prompt (or the completion sequence) for the state the record is in.
type Service struct {
	store        recordStore
	notifier     notifier
	campaigns    campaignSource
	orchestrator *Orchestrator
	bus          events.Bus
	log          *logger.Logger
}

// NewService wires the conversation service.
func NewService(
	store recordStore,
	notifier notifier,
	campaignSrc campaignSource,
	orchestrator *Orchestrator,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		store:        store,
		notifier:     notifier,
		campaigns:    campaignSrc,
		orchestrator: orchestrator,
		bus:          bus,
		log:          log,
	}
}

// HandleInbound applies one inbound message to the member's conversation for
// the given campaign. Field writes happen before any outbound prompt, so a
// persistence failure aborts silently and the member's next message finds
// the record unchanged. Prompt delivery failures are logged and swallowed;
// the derived state re-asks on the next message either way.
func (s *Service) HandleInbound(ctx context.Context, campaign *campaigns.Config, msg InboundMessage) error {
	log := s.log.WithConversation(msg.Phone, campaign.Endpoint)

	rec, created, err := s.store.FindOrCreate(ctx, msg.Phone, campaign.Endpoint)
	if err != nil {
		log.DatabaseError("conversations.FindOrCreate", err)
		return persistenceError("conversations.HandleInbound", err)
	}
	if created {
		s.bus.Publish(ctx, events.ConversationStarted{
			BaseEvent: events.NewBaseEvent(),
			RecordID:  rec.ID,
			Phone:     rec.Phone,
			Campaign:  rec.Campaign,
		})
	}

	switch state := DeriveState(rec); state {
	case StateAwaitingPhoto:
		return s.handlePhoto(ctx, campaign, rec, msg, log)

	case StateAwaitingCaption:
		return s.handleTextField(ctx, campaign, rec, msg, "caption", campaign.MsgAskCaption, campaign.MsgAskQuantity, log)

	case StateAwaitingQuantity:
		return s.handleTextField(ctx, campaign, rec, msg, "quantity", campaign.MsgAskQuantity, campaign.MsgAskWhy, log)

	case StateAwaitingWhyImportant:
		return s.handleWhyImportant(ctx, campaign, rec, msg, log)

	case StateComplete:
		// Leftover record from a failed submission; re-enter the
		// completion sequence on any inbound message.
		log.Info("re-entering completion for filled record")
		return s.orchestrator.Complete(ctx, rec, campaign, CompletionOptions{
			Notify:         true,
			FirstCompleted: msg.FirstCompletedCampaign,
		})

	default:
		log.Error("unreachable conversation state", "state", state.String())
		return nil
	}
}

func (s *Service) handlePhoto(ctx context.Context, campaign *campaigns.Config, rec *Record, msg InboundMessage, log *logger.Logger) error {
	if msg.MediaURL == "" {
		s.send(ctx, msg.Phone, campaign.MsgNotAPhoto, log)
		return nil
	}

	updated, err := s.store.SetField(ctx, rec.Phone, rec.Campaign, "photo_url", msg.MediaURL)
	if err != nil {
		log.DatabaseError("conversations.SetField", err)
		return persistenceError("conversations.handlePhoto", err)
	}

	s.publishAdvanced(ctx, updated, "photo_url")
	s.send(ctx, msg.Phone, campaign.MsgAskCaption, log)
	return nil
}

func (s *Service) handleTextField(ctx context.Context, campaign *campaigns.Config, rec *Record, msg InboundMessage, field string, reaskPath, nextPath int64, log *logger.Logger) error {
	value := sanitize.Text(msg.Text)
	if value == "" {
		s.send(ctx, msg.Phone, reaskPath, log)
		return nil
	}

	updated, err := s.store.SetField(ctx, rec.Phone, rec.Campaign, field, value)
	if err != nil {
		log.DatabaseError("conversations.SetField", err)
		return persistenceError("conversations.handleTextField", err)
	}

	s.publishAdvanced(ctx, updated, field)
	s.send(ctx, msg.Phone, nextPath, log)
	return nil
}

func (s *Service) handleWhyImportant(ctx context.Context, campaign *campaigns.Config, rec *Record, msg InboundMessage, log *logger.Logger) error {
	value := sanitize.Text(msg.Text)
	if value == "" {
		s.send(ctx, msg.Phone, campaign.MsgAskWhy, log)
		return nil
	}

	updated, err := s.store.SetField(ctx, rec.Phone, rec.Campaign, "why_important", value)
	if err != nil {
		log.DatabaseError("conversations.SetField", err)
		return persistenceError("conversations.handleWhyImportant", err)
	}

	s.publishAdvanced(ctx, updated, "why_important")
	return s.orchestrator.Complete(ctx, updated, campaign, CompletionOptions{
		Notify:         true,
		FirstCompleted: msg.FirstCompletedCampaign,
	})
}

// RetryCompletion re-runs the completion sequence for a record left behind
// by a failed submission. The member is not re-notified. A missing record
// means a later run already submitted it, which is success.
func (s *Service) RetryCompletion(ctx context.Context, phoneNumber, endpoint string, attempt int) error {
	log := s.log.WithConversation(phoneNumber, endpoint)

	rec, err := s.store.Find(ctx, phoneNumber, endpoint)
	if errors.Is(err, ErrRecordNotFound) {
		log.Info("completion retry skipped, record already submitted", "attempt", attempt)
		return nil
	}
	if err != nil {
		log.DatabaseError("conversations.Find", err)
		return persistenceError("conversations.RetryCompletion", err)
	}
	if DeriveState(rec) != StateComplete {
		log.Warn("completion retry skipped, record not complete", "attempt", attempt)
		return nil
	}

	campaign, err := s.campaigns.ByEndpoint(ctx, endpoint)
	if err != nil {
		return ErrUnknownCampaign
	}

	return s.orchestrator.Complete(ctx, rec, campaign, CompletionOptions{
		Notify:  false,
		Attempt: attempt,
	})
}

func (s *Service) send(ctx context.Context, phoneNumber string, optInPathID int64, log *logger.Logger) {
	if err := s.notifier.SendMessage(ctx, phoneNumber, optInPathID, nil); err != nil {
		log.Error("prompt delivery failed", "error", err, "opt_in_path", optInPathID)
	}
}

func (s *Service) publishAdvanced(ctx context.Context, rec *Record, field string) {
	s.bus.Publish(ctx, events.ConversationAdvanced{
		BaseEvent: events.NewBaseEvent(),
		Phone:     rec.Phone,
		Campaign:  rec.Campaign,
		Field:     field,
	})
}
