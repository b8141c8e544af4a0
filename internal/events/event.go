// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"sms_chatbot_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// ConversationStarted is published when a first inbound message creates a
// conversation record for a phone+campaign pair.
type ConversationStarted struct {
	BaseEvent
	RecordID uuid.UUID `json:"recordId"`
	Phone    string    `json:"phone"`
	Campaign string    `json:"campaign"`
}

func (e ConversationStarted) EventName() string { return "conversations.started" }

// ConversationAdvanced is published when an inbound message fills the next
// reportback field.
type ConversationAdvanced struct {
	BaseEvent
	Phone    string `json:"phone"`
	Campaign string `json:"campaign"`
	Field    string `json:"field"`
}

func (e ConversationAdvanced) EventName() string { return "conversations.advanced" }

// ReportbackSubmitted is published when a completed reportback was accepted
// by the content system and the conversation record was cleaned up.
type ReportbackSubmitted struct {
	BaseEvent
	Phone        string `json:"phone"`
	Campaign     string `json:"campaign"`
	AccountID    string `json:"accountId"`
	SubmissionID string `json:"submissionId"`
}

func (e ReportbackSubmitted) EventName() string { return "reportback.submitted" }

// ReportbackSubmissionFailed is published when the completion sequence could
// not deliver the reportback to the content system. The conversation record
// is kept for retry.
type ReportbackSubmissionFailed struct {
	BaseEvent
	Phone     string `json:"phone"`
	Campaign  string `json:"campaign"`
	Reason    string `json:"reason"` // "rejected", "transport", "account_resolution"
	Retryable bool   `json:"retryable"`
	Detail    string `json:"detail,omitempty"`
}

func (e ReportbackSubmissionFailed) EventName() string { return "reportback.submission_failed" }

// UserOptedOut is published after an opt-out signal was sent to the gateway
// for a completed campaign.
type UserOptedOut struct {
	BaseEvent
	Phone    string `json:"phone"`
	Campaign string `json:"campaign"`
	OptOutID int64  `json:"optOutId"`
}

func (e UserOptedOut) EventName() string { return "conversations.user_opted_out" }
