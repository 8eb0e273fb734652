package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ovidio_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type fakeWAConfig struct{ verifyToken string }

func (f fakeWAConfig) GetWhatsAppToken() string         { return "token" }
func (f fakeWAConfig) GetWhatsAppPhoneNumberID() string { return "123" }
func (f fakeWAConfig) GetWhatsAppVerifyToken() string   { return f.verifyToken }
func (f fakeWAConfig) GetSalespersonPhone() string      { return "" }

type recordingProcessor struct {
	msgs []InboundMessage
	err  error
}

func (p *recordingProcessor) Process(_ context.Context, msg InboundMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newTestRouter(verifyToken string, p Processor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewHandler(fakeWAConfig{verifyToken: verifyToken}, p, logger.New("test"))
	engine.GET("/api/webhook", h.HandleVerify)
	engine.POST("/api/webhook", h.HandleReceive)
	return engine
}

func TestVerifyEchoesChallenge(t *testing.T) {
	engine := newTestRouter("secreto", &recordingProcessor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=42abc", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "42abc" {
		t.Errorf("body = %q, want challenge echoed", w.Body.String())
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	engine := newTestRouter("secreto", &recordingProcessor{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=otro&hub.challenge=42abc", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

const deliveryBody = `{
  "entry": [{
    "changes": [{
      "value": {
        "contacts": [{"wa_id": "5493415551234", "profile": {"name": "Marcela"}}],
        "messages": [
          {"id": "wamid.A1", "from": "5493415551234", "type": "text", "text": {"body": "hola, necesito una camara"}},
          {"id": "wamid.A2", "from": "5493415551234", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestReceiveExtractsTextMessages(t *testing.T) {
	p := &recordingProcessor{}
	engine := newTestRouter("secreto", p)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(deliveryBody))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(p.msgs) != 1 {
		t.Fatalf("processed %d messages, want 1 (non-text skipped)", len(p.msgs))
	}
	got := p.msgs[0]
	if got.ID != "wamid.A1" || got.From != "5493415551234" {
		t.Errorf("message identity = %+v", got)
	}
	if got.Text != "hola, necesito una camara" {
		t.Errorf("text = %q", got.Text)
	}
	if got.DisplayName != "Marcela" {
		t.Errorf("display name = %q, want profile name", got.DisplayName)
	}
}

func TestReceiveStatusUpdateIsAccepted(t *testing.T) {
	p := &recordingProcessor{}
	engine := newTestRouter("secreto", p)

	body := `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.A1","status":"delivered"}]}}]}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(p.msgs) != 0 {
		t.Fatalf("status update reached the pipeline: %+v", p.msgs)
	}
}
