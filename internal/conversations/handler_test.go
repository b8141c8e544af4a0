package conversations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeDeduper) Seen(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	dup := f.seen[key]
	f.seen[key] = true
	return dup, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *serviceFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newServiceFixture()
	source := &fakeCampaignSource{configs: map[string]*campaigns.Config{
		"donate-socks": testCampaign(),
	}}
	handler := NewHandler(f.service, source, &fakeDeduper{}, validator.New(), testLogger())

	engine := gin.New()
	engine.POST("/v1/chatbot/:endpoint", handler.Inbound)
	return engine, f
}

func postInbound(t *testing.T, engine *gin.Engine, endpoint string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/chatbot/"+endpoint, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestInboundUnknownCampaignReturns404(t *testing.T) {
	engine, _ := newTestRouter(t)

	resp := postInbound(t, engine, "no-such-campaign", map[string]interface{}{
		"phone": "15551234567",
		"args":  "hello",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.Code)
	}
}

func TestInboundMissingPhoneReturns400(t *testing.T) {
	engine, _ := newTestRouter(t)

	resp := postInbound(t, engine, "donate-socks", map[string]interface{}{"args": "hello"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", resp.Code)
	}
}

func TestInboundProcessesMessage(t *testing.T) {
	engine, f := newTestRouter(t)

	resp := postInbound(t, engine, "donate-socks", map[string]interface{}{
		"phone":         "+1 (555) 123-4567",
		"mms_image_url": "https://cdn/p.jpg",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.Code)
	}

	// Phone is normalized to digits before it reaches the store.
	rec, err := f.store.Find(context.Background(), "15551234567", "donate-socks")
	if err != nil {
		t.Fatalf("record missing under normalized phone: %v", err)
	}
	if rec.PhotoURL != "https://cdn/p.jpg" {
		t.Fatalf("got photo url %q", rec.PhotoURL)
	}
}

func TestInboundDuplicateDeliveryIsSuppressed(t *testing.T) {
	engine, f := newTestRouter(t)

	payload := map[string]interface{}{
		"phone":         "15551234567",
		"mms_image_url": "https://cdn/p.jpg",
		"message_id":    "SM123",
	}

	if resp := postInbound(t, engine, "donate-socks", payload); resp.Code != http.StatusOK {
		t.Fatalf("first delivery got status %d", resp.Code)
	}
	resp := postInbound(t, engine, "donate-socks", payload)
	if resp.Code != http.StatusOK {
		t.Fatalf("duplicate delivery got status %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "duplicate" {
		t.Fatalf("got status %q, want duplicate", body["status"])
	}
	if paths := f.notifier.sentPaths(); len(paths) != 1 {
		t.Fatalf("duplicate must not trigger a second prompt, got %v", paths)
	}
}

func TestInboundPersistenceFailureReturns500(t *testing.T) {
	engine, f := newTestRouter(t)
	f.store.findErr = errBoom

	resp := postInbound(t, engine, "donate-socks", map[string]interface{}{
		"phone": "15551234567",
		"args":  "hello",
	})
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", resp.Code)
	}
}

func TestInboundCompletionFailureStillAcknowledged(t *testing.T) {
	engine, f := newTestRouter(t)
	f.store.seed(completeRecord())
	f.submitter.err = errBoom

	resp := postInbound(t, engine, "donate-socks", map[string]interface{}{
		"phone": "15551234567",
		"args":  "anything",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("completion failure must still return 200, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["completion"] != "deferred" {
		t.Fatalf("got body %v", body)
	}
}

func TestInboundRejectedUserCanRestartLater(t *testing.T) {
	engine, f := newTestRouter(t)
	f.store.seed(completeRecord())
	f.submitter.err = content.ErrRejected

	resp := postInbound(t, engine, "donate-socks", map[string]interface{}{
		"phone": "15551234567",
		"args":  "anything",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("rejection must still return 200, got %d", resp.Code)
	}
	if _, err := f.store.Find(context.Background(), "15551234567", "donate-socks"); err != nil {
		t.Fatalf("record must survive a rejection: %v", err)
	}
}
