package conversations

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/platform/logger"
)

func testLogger() *logger.Logger { return logger.New("test") }

func testBus() events.Bus { return events.NewInMemoryBus(testLogger()) }

// fakeStore is an in-memory recordStore.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]*Record
	findErr  error
	setErr   error
	delErr   error
	deletes  int
	setCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*Record{}}
}

func key(phone, campaign string) string { return phone + "|" + campaign }

func (f *fakeStore) FindOrCreate(_ context.Context, phone, campaign string) (*Record, bool, error) {
	if f.findErr != nil {
		return nil, false, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[key(phone, campaign)]; ok {
		copied := *rec
		return &copied, false, nil
	}
	rec := &Record{Phone: phone, Campaign: campaign}
	f.records[key(phone, campaign)] = rec
	copied := *rec
	return &copied, true, nil
}

func (f *fakeStore) Find(_ context.Context, phone, campaign string) (*Record, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key(phone, campaign)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) SetField(_ context.Context, phone, campaign, field, value string) (*Record, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key(phone, campaign)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	switch field {
	case "photo_url":
		rec.PhotoURL = value
	case "caption":
		rec.Caption = value
	case "quantity":
		rec.Quantity = value
	case "why_important":
		rec.WhyImportant = value
	default:
		return nil, fmt.Errorf("unknown field %q", field)
	}
	f.setCalls = append(f.setCalls, field+"="+value)
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) Delete(_ context.Context, phone, campaign string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, key(phone, campaign))
	f.deletes++
	return nil
}

func (f *fakeStore) seed(rec *Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *rec
	f.records[key(rec.Phone, rec.Campaign)] = &copied
}

// sentMessage captures one outbound gateway call.
type sentMessage struct {
	phone        string
	optInPathID  int64
	customFields map[string]string
}

// fakeNotifier records outbound messages and opt-outs.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentMessage
	optOuts []int64
	sendErr error
	optErr  error
}

func (f *fakeNotifier) SendMessage(_ context.Context, phone string, optInPathID int64, customFields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{phone: phone, optInPathID: optInPathID, customFields: customFields})
	return nil
}

func (f *fakeNotifier) OptOut(_ context.Context, _ string, campaignID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.optErr != nil {
		return f.optErr
	}
	f.optOuts = append(f.optOuts, campaignID)
	return nil
}

func (f *fakeNotifier) sentPaths() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	paths := make([]int64, 0, len(f.sent))
	for _, msg := range f.sent {
		paths = append(paths, msg.optInPathID)
	}
	return paths
}

// fakeResolver implements accountResolver over a fixed account set.
type fakeResolver struct {
	users      map[string]*content.User
	getErr     error
	createErr  error
	lookups    []string
	created    []string
	createdUID string
}

func (f *fakeResolver) UserGet(_ context.Context, mobile string) (*content.User, error) {
	f.lookups = append(f.lookups, mobile)
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.users[mobile]
	if !ok {
		return nil, content.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeResolver) UserCreate(_ context.Context, mobile string) (*content.User, error) {
	f.created = append(f.created, mobile)
	if f.createErr != nil {
		return nil, f.createErr
	}
	uid := f.createdUID
	if uid == "" {
		uid = "created-" + mobile
	}
	return &content.User{ID: uid, Mobile: mobile}, nil
}

func (f *fakeResolver) Source() string { return "sms" }

// fakeSubmitter implements submitter.
type fakeSubmitter struct {
	submissions []content.Reportback
	campaignIDs []int64
	err         error
	id          string
}

func (f *fakeSubmitter) SubmitReportback(_ context.Context, campaignID int64, rb *content.Reportback) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.submissions = append(f.submissions, *rb)
	f.campaignIDs = append(f.campaignIDs, campaignID)
	if f.id == "" {
		return "sub-1", nil
	}
	return f.id, nil
}

// fakeScheduler records retry requests.
type fakeScheduler struct {
	retries []int
	err     error
}

func (f *fakeScheduler) ScheduleCompletionRetry(_ context.Context, _, _ string, attempt int) error {
	if f.err != nil {
		return f.err
	}
	f.retries = append(f.retries, attempt)
	return nil
}

var errBoom = errors.New("boom")
