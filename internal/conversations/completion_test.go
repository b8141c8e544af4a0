package conversations

import (
	"context"
	"errors"
	"testing"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
)

func testCampaign() *campaigns.Config {
	return &campaigns.Config{
		Endpoint:            "donate-socks",
		ContentCampaignID:   7483,
		CompletedCampaignID: 8100,
		OptOutCampaignID:    131201,
		MsgNotAPhoto:        100,
		MsgAskCaption:       101,
		MsgAskQuantity:      102,
		MsgAskWhy:           103,
		MsgComplete:         104,
	}
}

func completeRecord() *Record {
	return &Record{
		Phone:        "15551234567",
		Campaign:     "donate-socks",
		PhotoURL:     "https://cdn/photo.jpg",
		Caption:      "socks",
		Quantity:     "3",
		WhyImportant: "warm feet matter",
	}
}

func newOrchestrator(store *fakeStore, resolver *fakeResolver, sub *fakeSubmitter, not *fakeNotifier, sched *fakeScheduler) *Orchestrator {
	return NewOrchestrator(store, resolver, sub, not, sched, testBus(), testLogger())
}

func TestCompleteSubmitsAndDeletesRecord(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{
		"5551234567": {ID: "uid-1", Mobile: "5551234567"},
	}}
	sub := &fakeSubmitter{}
	not := &fakeNotifier{}
	sched := &fakeScheduler{}

	orch := newOrchestrator(store, resolver, sub, not, sched)
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Notify: true})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if len(sub.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.submissions))
	}
	got := sub.submissions[0]
	if got.UID != "uid-1" || got.Caption != "socks" || got.Quantity != "3" ||
		got.WhyImportant != "warm feet matter" || got.FileURL != "https://cdn/photo.jpg" {
		t.Fatalf("unexpected submission payload %+v", got)
	}
	if sub.campaignIDs[0] != 7483 {
		t.Fatalf("submitted to campaign %d, want 7483", sub.campaignIDs[0])
	}
	if store.deletes != 1 {
		t.Fatalf("record should be deleted once, got %d deletes", store.deletes)
	}
	if len(sched.retries) != 0 {
		t.Fatalf("success must not schedule a retry, got %v", sched.retries)
	}
}

func TestCompleteResolvesStrippedPhoneFirst(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{
		"5551234567": {ID: "uid-stripped"},
	}}
	sub := &fakeSubmitter{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, &fakeScheduler{})
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if len(resolver.lookups) != 1 || resolver.lookups[0] != "5551234567" {
		t.Fatalf("expected single stripped lookup, got %v", resolver.lookups)
	}
	if sub.submissions[0].UID != "uid-stripped" {
		t.Fatalf("got uid %q", sub.submissions[0].UID)
	}
}

func TestCompleteFallsBackToOriginalDigits(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{
		"15551234567": {ID: "uid-full"},
	}}
	sub := &fakeSubmitter{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, &fakeScheduler{})
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	want := []string{"5551234567", "15551234567"}
	if len(resolver.lookups) != 2 || resolver.lookups[0] != want[0] || resolver.lookups[1] != want[1] {
		t.Fatalf("lookup order %v, want %v", resolver.lookups, want)
	}
	if sub.submissions[0].UID != "uid-full" {
		t.Fatalf("got uid %q", sub.submissions[0].UID)
	}
}

func TestCompleteCreatesAccountWhenBothLookupsMiss(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{}, createdUID: "uid-new"}
	sub := &fakeSubmitter{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, &fakeScheduler{})
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if len(resolver.created) != 1 || resolver.created[0] != "5551234567" {
		t.Fatalf("expected creation under stripped number, got %v", resolver.created)
	}
	if sub.submissions[0].UID != "uid-new" {
		t.Fatalf("got uid %q", sub.submissions[0].UID)
	}
}

func TestCompleteAccountResolutionFailureKeepsRecord(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{getErr: errBoom}
	sub := &fakeSubmitter{}
	sched := &fakeScheduler{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, sched)
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Attempt: 1})
	if !errors.Is(err, ErrAccountResolution) {
		t.Fatalf("got %v, want ErrAccountResolution", err)
	}

	if len(sub.submissions) != 0 {
		t.Fatal("must not submit without an account")
	}
	if store.deletes != 0 {
		t.Fatal("record must be kept on resolution failure")
	}
	if len(sched.retries) != 1 || sched.retries[0] != 2 {
		t.Fatalf("expected retry attempt 2, got %v", sched.retries)
	}
}

func TestCompleteCreateFailureKeepsRecord(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	// Both lookups miss and the fallback creation fails too.
	resolver := &fakeResolver{users: map[string]*content.User{}, createErr: errBoom}
	sub := &fakeSubmitter{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, &fakeScheduler{})
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{})
	if !errors.Is(err, ErrAccountResolution) {
		t.Fatalf("got %v, want ErrAccountResolution", err)
	}

	if len(resolver.created) != 1 || resolver.created[0] != "5551234567" {
		t.Fatalf("expected a creation attempt under the stripped number, got %v", resolver.created)
	}
	if len(sub.submissions) != 0 {
		t.Fatal("must not submit without an account")
	}
	if store.deletes != 0 {
		t.Fatal("record must be kept when account creation fails")
	}
}

func TestCompleteRejectionKeepsRecordWithoutRetry(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	sub := &fakeSubmitter{err: content.ErrRejected}
	not := &fakeNotifier{}
	sched := &fakeScheduler{}

	orch := newOrchestrator(store, resolver, sub, not, sched)
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Notify: true})
	if !errors.Is(err, ErrSubmissionRejected) {
		t.Fatalf("got %v, want ErrSubmissionRejected", err)
	}

	if store.deletes != 0 {
		t.Fatal("record must be kept on rejection")
	}
	if len(sched.retries) != 0 {
		t.Fatalf("rejection is terminal, got retries %v", sched.retries)
	}
	// Member-facing notifications still go out.
	if len(not.sentPaths()) != 1 {
		t.Fatalf("completion message must be sent, got paths %v", not.sentPaths())
	}
	if len(not.optOuts) != 1 || not.optOuts[0] != 131201 {
		t.Fatalf("opt-out must be sent, got %v", not.optOuts)
	}
}

func TestCompleteTransportFailureSchedulesRetry(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	sub := &fakeSubmitter{err: errBoom}
	sched := &fakeScheduler{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, sched)
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{})
	if !errors.Is(err, ErrSubmissionTransport) {
		t.Fatalf("got %v, want ErrSubmissionTransport", err)
	}

	if store.deletes != 0 {
		t.Fatal("record must be kept on transport failure")
	}
	if len(sched.retries) != 1 || sched.retries[0] != 1 {
		t.Fatalf("expected retry attempt 1, got %v", sched.retries)
	}
}

func TestCompleteNotificationFailureDoesNotBlockSubmission(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	sub := &fakeSubmitter{}
	not := &fakeNotifier{sendErr: errBoom, optErr: errBoom}

	orch := newOrchestrator(store, resolver, sub, not, &fakeScheduler{})
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Notify: true}); err != nil {
		t.Fatalf("notification failure must not fail completion: %v", err)
	}
	if len(sub.submissions) != 1 {
		t.Fatal("submission must still happen")
	}
	if store.deletes != 1 {
		t.Fatal("record must still be deleted")
	}
}

func TestCompleteWithoutNotifySendsNothing(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	not := &fakeNotifier{}

	orch := newOrchestrator(store, resolver, &fakeSubmitter{}, not, &fakeScheduler{})
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Notify: false}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if len(not.sentPaths()) != 0 || len(not.optOuts) != 0 {
		t.Fatalf("retry runs must not message the member, got %v / %v", not.sentPaths(), not.optOuts)
	}
}

func TestCompleteFirstCompletedFlagSetsCustomField(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	not := &fakeNotifier{}

	orch := newOrchestrator(store, resolver, &fakeSubmitter{}, not, &fakeScheduler{})
	err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{Notify: true, FirstCompleted: true})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	var completionMsg *sentMessage
	for i := range not.sent {
		if not.sent[i].optInPathID == 104 {
			completionMsg = &not.sent[i]
		}
	}
	if completionMsg == nil {
		t.Fatal("completion message not sent")
	}
	if completionMsg.customFields["profile_first_completed_campaign_id"] != "8100" {
		t.Fatalf("got custom fields %v", completionMsg.customFields)
	}
}

func TestCompleteDeleteFailureIsNotResubmitted(t *testing.T) {
	store := newFakeStore()
	rec := completeRecord()
	store.seed(rec)
	store.delErr = errBoom

	resolver := &fakeResolver{users: map[string]*content.User{"5551234567": {ID: "uid-1"}}}
	sub := &fakeSubmitter{}
	sched := &fakeScheduler{}

	orch := newOrchestrator(store, resolver, sub, &fakeNotifier{}, sched)
	if err := orch.Complete(context.Background(), rec, testCampaign(), CompletionOptions{}); err != nil {
		t.Fatalf("cleanup failure must not fail completion: %v", err)
	}
	if len(sub.submissions) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(sub.submissions))
	}
	if len(sched.retries) != 0 {
		t.Fatalf("cleanup failure must not schedule a retry, got %v", sched.retries)
	}
}
