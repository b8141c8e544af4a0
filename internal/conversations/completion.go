package conversations

import (
	"context"
	"errors"
	"strconv"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/phone"

	"golang.org/x/sync/errgroup"
)

// accountResolver resolves or creates content-system accounts by mobile.
type accountResolver interface {
	UserGet(ctx context.Context, mobile string) (*content.User, error)
	UserCreate(ctx context.Context, mobile string) (*content.User, error)
	Source() string
}

// submitter delivers completed reportbacks to the content system.
type submitter interface {
	SubmitReportback(ctx context.Context, campaignID int64, rb *content.Reportback) (string, error)
}

// notifier sends outbound messages through the messaging gateway.
type notifier interface {
	SendMessage(ctx context.Context, phone string, optInPathID int64, customFields map[string]string) error
	OptOut(ctx context.Context, phone string, campaignID int64) error
}

// retryScheduler enqueues a delayed re-run of the completion sequence.
type retryScheduler interface {
	ScheduleCompletionRetry(ctx context.Context, phone, campaign string, attempt int) error
}

// CompletionOptions control one run of the completion sequence.
type CompletionOptions struct {
	// Notify sends the completion message and opt-out. Scheduled retries run
	// with Notify false so the member is not messaged twice.
	Notify bool
	// FirstCompleted marks this as the member's first completed campaign,
	// which is recorded on their gateway profile.
	FirstCompleted bool
	// Attempt counts prior completion runs for this record.
	Attempt int
}

// Orchestrator runs the completion sequence for a filled conversation record:
// notify the member, resolve their content account, submit the reportback,
// and delete the record once the submission is confirmed.
type Orchestrator struct {
	store     recordStore
	resolver  accountResolver
	submitter submitter
	notifier  notifier
	scheduler retryScheduler
	bus       events.Bus
	log       *logger.Logger
}

// NewOrchestrator wires a completion orchestrator. scheduler may be nil when
// retry queuing is disabled.
func NewOrchestrator(
	store recordStore,
	resolver accountResolver,
	submitter submitter,
	notifier notifier,
	scheduler retryScheduler,
	bus events.Bus,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		resolver:  resolver,
		submitter: submitter,
		notifier:  notifier,
		scheduler: scheduler,
		bus:       bus,
		log:       log,
	}
}

// Complete runs the completion sequence. Notifications are fire-and-forget:
// their failures are logged but never affect the submission outcome. The
// record is deleted only after the content system confirms the submission,
// so any failure leaves it in place for a later re-run.
func (o *Orchestrator) Complete(ctx context.Context, rec *Record, campaign *campaigns.Config, opts CompletionOptions) error {
	log := o.log.WithConversation(rec.Phone, rec.Campaign)

	if opts.Notify {
		o.sendCompletionNotifications(ctx, rec, campaign, opts, log)
	}

	user, err := o.resolveAccount(ctx, rec.Phone)
	if err != nil {
		log.Error("account resolution failed", "error", err, "attempt", opts.Attempt)
		o.publishFailure(ctx, rec, "account_resolution", true, err)
		o.scheduleRetry(ctx, rec, opts.Attempt, log)
		return upstreamError("conversations.Complete", ErrAccountResolution, err)
	}

	submissionID, err := o.submitter.SubmitReportback(ctx, campaign.ContentCampaignID, &content.Reportback{
		UID:          user.ID,
		Caption:      rec.Caption,
		Quantity:     rec.Quantity,
		WhyImportant: rec.WhyImportant,
		FileURL:      rec.PhotoURL,
		Source:       o.resolver.Source(),
	})
	if errors.Is(err, content.ErrRejected) {
		log.Error("reportback rejected", "campaign_id", campaign.ContentCampaignID)
		o.publishFailure(ctx, rec, "rejected", false, err)
		return upstreamError("conversations.Complete", ErrSubmissionRejected, err)
	}
	if err != nil {
		log.Error("reportback submission failed", "error", err, "attempt", opts.Attempt)
		o.publishFailure(ctx, rec, "transport", true, err)
		o.scheduleRetry(ctx, rec, opts.Attempt, log)
		return upstreamError("conversations.Complete", ErrSubmissionTransport, err)
	}

	// Deletion failure must not trigger a resubmission; the next inbound
	// message re-enters the sequence and the content system already has
	// this reportback.
	if err := o.store.Delete(ctx, rec.Phone, rec.Campaign); err != nil {
		log.Error("record cleanup failed after submission", "error", err, "submission_id", submissionID)
	}

	o.bus.Publish(ctx, events.ReportbackSubmitted{
		BaseEvent:    events.NewBaseEvent(),
		Phone:        rec.Phone,
		Campaign:     rec.Campaign,
		AccountID:    user.ID,
		SubmissionID: submissionID,
	})
	log.Info("reportback submitted", "submission_id", submissionID, "account_id", user.ID)
	return nil
}

// sendCompletionNotifications fans out the completion message and the
// campaign opt-out concurrently.
func (o *Orchestrator) sendCompletionNotifications(ctx context.Context, rec *Record, campaign *campaigns.Config, opts CompletionOptions, log *logger.Logger) {
	var group errgroup.Group

	group.Go(func() error {
		var customFields map[string]string
		if opts.FirstCompleted && campaign.CompletedCampaignID > 0 {
			customFields = map[string]string{
				"profile_first_completed_campaign_id": strconv.FormatInt(campaign.CompletedCampaignID, 10),
			}
		}
		if err := o.notifier.SendMessage(ctx, rec.Phone, campaign.MsgComplete, customFields); err != nil {
			log.Error("completion message failed", "error", err)
		}
		return nil
	})

	group.Go(func() error {
		if campaign.OptOutCampaignID <= 0 {
			return nil
		}
		if err := o.notifier.OptOut(ctx, rec.Phone, campaign.OptOutCampaignID); err != nil {
			log.Error("campaign opt-out failed", "error", err)
			return nil
		}
		o.bus.Publish(ctx, events.UserOptedOut{
			BaseEvent: events.NewBaseEvent(),
			Phone:     rec.Phone,
			Campaign:  rec.Campaign,
			OptOutID:  campaign.OptOutCampaignID,
		})
		return nil
	})

	_ = group.Wait()
}

// resolveAccount finds the member's content account. An 11-digit US number
// is first looked up with the leading country digit stripped, then with the
// original digits; a missing account is created under the stripped number.
func (o *Orchestrator) resolveAccount(ctx context.Context, rawPhone string) (*content.User, error) {
	digits := phone.Digits(rawPhone)
	stripped := phone.StripCountryCode(rawPhone)

	user, err := o.resolver.UserGet(ctx, stripped)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, content.ErrUserNotFound) {
		return nil, err
	}

	if digits != stripped {
		user, err = o.resolver.UserGet(ctx, digits)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, content.ErrUserNotFound) {
			return nil, err
		}
	}

	return o.resolver.UserCreate(ctx, stripped)
}

func (o *Orchestrator) scheduleRetry(ctx context.Context, rec *Record, attempt int, log *logger.Logger) {
	if o.scheduler == nil {
		return
	}
	if err := o.scheduler.ScheduleCompletionRetry(ctx, rec.Phone, rec.Campaign, attempt+1); err != nil {
		log.Error("completion retry scheduling failed", "error", err)
	}
}

func (o *Orchestrator) publishFailure(ctx context.Context, rec *Record, reason string, retryable bool, err error) {
	o.bus.Publish(ctx, events.ReportbackSubmissionFailed{
		BaseEvent: events.NewBaseEvent(),
		Phone:     rec.Phone,
		Campaign:  rec.Campaign,
		Reason:    reason,
		Retryable: retryable,
		Detail:    err.Error(),
	})
}
