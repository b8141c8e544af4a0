package conversations

import (
	"errors"

	"sms_chatbot_backend/platform/apperr"
)

// Failure sentinels for the completion sequence. Callers use errors.Is; the
// webhook handler maps them onto HTTP via apperr kinds.
var (
	// ErrUnknownCampaign means the webhook endpoint matches no campaign config.
	ErrUnknownCampaign = errors.New("unknown campaign")
	// ErrAccountResolution means the content account could not be found or created.
	ErrAccountResolution = errors.New("account resolution failed")
	// ErrSubmissionRejected means the content system refused the reportback.
	// Terminal: the same payload will not be accepted on retry.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrSubmissionTransport means the reportback could not reach the content
	// system. Retryable.
	ErrSubmissionTransport = errors.New("submission transport failure")
)

func persistenceError(op string, err error) error {
	return apperr.Wrap(apperr.KindInternal, "conversation persistence failure", err).WithOp(op)
}

func upstreamError(op string, sentinel, err error) error {
	wrapped := apperr.Wrap(apperr.KindUpstream, sentinel.Error(), errors.Join(sentinel, err)).WithOp(op)
	return wrapped
}
